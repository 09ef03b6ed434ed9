package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

func testTrack(n int) *Track {
	return &Track{
		Identifier: "track-" + strconv.Itoa(n),
		Encoded:    "encoded-" + strconv.Itoa(n),
		Title:      "Song " + strconv.Itoa(n),
		Duration:   3 * time.Minute,
		SourceName: "youtube",
		IsSeekable: true,
	}
}

func testContext(n int, userID snowflake.ID) *TrackContext {
	return NewTrackContext(testTrack(n), Requester{UserID: userID, DisplayName: "user"}, false)
}

func titles(tcs []*TrackContext) []string {
	result := make([]string, len(tcs))
	for i, tc := range tcs {
		result[i] = tc.EffectiveTitle()
	}
	return result
}
