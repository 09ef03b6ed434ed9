package player

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

const testGuildID = snowflake.ID(1000)

func mockTrack(id string) *domain.Track {
	return &domain.Track{
		Identifier: id,
		Encoded:    "encoded-" + id,
		Title:      "Track " + id,
		Artist:     "Artist",
		Duration:   3 * time.Minute,
		SourceName: "youtube",
		IsSeekable: true,
	}
}

func mockContext(id string, userID snowflake.ID) *domain.TrackContext {
	return domain.NewTrackContext(mockTrack(id), domain.Requester{UserID: userID, DisplayName: "user"}, false)
}

type playCall struct {
	track *domain.Track
	start time.Duration
}

type boundaryWatch struct {
	at time.Duration
	fn func(domain.BoundaryState)
}

type mockSession struct {
	mu         sync.Mutex
	plays      []playCall
	stops      int
	paused     bool
	volume     int
	seeks      []time.Duration
	position   time.Duration
	watches    []boundaryWatch
	destroyed  bool
	playErr    error
	failPlays  int
	destroyErr error
}

func (m *mockSession) Play(_ context.Context, track *domain.Track, start time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	if m.failPlays > 0 {
		m.failPlays--
		return errors.New("track refused")
	}
	m.plays = append(m.plays, playCall{track: track, start: start})
	m.position = start
	return nil
}

func (m *mockSession) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *mockSession) SetPaused(_ context.Context, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
	return nil
}

func (m *mockSession) SetVolume(_ context.Context, volume int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	return nil
}

func (m *mockSession) Seek(_ context.Context, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, position)
	m.position = position
	return nil
}

func (m *mockSession) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *mockSession) WatchBoundary(at time.Duration, fn func(domain.BoundaryState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watches = append(m.watches, boundaryWatch{at: at, fn: fn})
}

func (m *mockSession) Destroy(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyErr != nil {
		return m.destroyErr
	}
	if m.destroyed {
		return ports.ErrSessionDestroyed
	}
	m.destroyed = true
	return nil
}

func (m *mockSession) playCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plays)
}

func (m *mockSession) lastPlay() playCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.plays) == 0 {
		return playCall{}
	}
	return m.plays[len(m.plays)-1]
}

func (m *mockSession) stopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

func (m *mockSession) lastWatch() boundaryWatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.watches) == 0 {
		return boundaryWatch{}
	}
	return m.watches[len(m.watches)-1]
}

type mockSessionProvider struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*mockSession
}

func newMockSessionProvider() *mockSessionProvider {
	return &mockSessionProvider{sessions: make(map[snowflake.ID]*mockSession)}
}

func (m *mockSessionProvider) Session(guildID snowflake.ID) ports.PlaybackSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	if !ok {
		s = &mockSession{}
		m.sessions[guildID] = s
	}
	return s
}

// mockResolver resolves identifiers from a fixed table. It records the order
// of calls and the highest number of concurrent calls.
type mockResolver struct {
	mu          sync.Mutex
	results     map[string]*ports.LoadResult
	errs        map[string]error
	panics      map[string]bool
	delay       time.Duration
	calls       []string
	active      int
	maxActive   int
	decodeErr   error
	decodeCalls int
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		results: make(map[string]*ports.LoadResult),
		errs:    make(map[string]error),
		panics:  make(map[string]bool),
	}
}

func (m *mockResolver) addTrack(identifier string, track *domain.Track) {
	m.results[identifier] = &ports.LoadResult{Type: ports.LoadTypeTrack, Tracks: []*domain.Track{track}}
}

func (m *mockResolver) LoadTracks(_ context.Context, identifier string) (*ports.LoadResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, identifier)
	m.active++
	m.maxActive = max(m.maxActive, m.active)
	delay := m.delay
	result, err, panics := m.results[identifier], m.errs[identifier], m.panics[identifier]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	time.Sleep(delay)
	if panics {
		panic("resolver exploded")
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &ports.LoadResult{Type: ports.LoadTypeEmpty}, nil
	}
	return result, nil
}

func (m *mockResolver) DecodeTrack(_ context.Context, encoded string) (*domain.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decodeCalls++
	if m.decodeErr != nil {
		return nil, m.decodeErr
	}
	id := encoded[len("encoded-"):]
	return mockTrack(id), nil
}

func (m *mockResolver) callOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type sentMessage struct {
	channelID snowflake.ID
	message   string
	isError   bool
}

type mockNotifier struct {
	mu         sync.Mutex
	messages   []sentMessage
	nowPlaying []*ports.NowPlayingInfo
	deleted    []snowflake.ID
	nextID     snowflake.ID
}

func (m *mockNotifier) SendNowPlaying(_ snowflake.ID, info *ports.NowPlayingInfo) (snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nowPlaying = append(m.nowPlaying, info)
	m.nextID++
	return m.nextID, nil
}

func (m *mockNotifier) SendMessage(channelID snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{channelID: channelID, message: message})
	return nil
}

func (m *mockNotifier) SendError(channelID snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{channelID: channelID, message: message, isError: true})
	return nil
}

func (m *mockNotifier) DeleteMessage(_ snowflake.ID, messageID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockNotifier) sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.messages...)
}

type mockInspector struct {
	info *ports.PlaylistInfo
	err  error
}

func (m *mockInspector) Inspect(_ context.Context, _ string) (*ports.PlaylistInfo, error) {
	return m.info, m.err
}

type mockLimiter struct {
	allow   bool
	weights []int
}

func (m *mockLimiter) Allow(_ snowflake.ID, weight int) bool {
	m.weights = append(m.weights, weight)
	return m.allow
}

type mockDescriptions struct {
	description string
	err         error
}

func (m *mockDescriptions) Description(_ context.Context, _ *domain.Track) (string, error) {
	return m.description, m.err
}

type mockUserInfo struct {
	names map[snowflake.ID]string
}

func (m *mockUserInfo) GetUserInfo(_, userID snowflake.ID) (*ports.UserInfo, error) {
	return &ports.UserInfo{DisplayName: m.names[userID]}, nil
}

func testConfig() Config {
	return Config{
		HistorySize:   20,
		DefaultVolume: 100,
		VoteCooldown:  2 * time.Second,
		Loader: LoaderConfig{
			TrackLimit:        10000,
			AnnounceThreshold: 50,
		},
	}
}

type testPlayer struct {
	*GuildPlayer
	session  *mockSession
	resolver *mockResolver
	notifier *mockNotifier
	played   []*domain.TrackContext
	errs     []error
	hookMu   sync.Mutex
}

func newTestPlayer(opts ...func(*Deps)) *testPlayer {
	tp := &testPlayer{
		session:  &mockSession{},
		resolver: newMockResolver(),
		notifier: &mockNotifier{},
	}
	deps := Deps{
		Resolver: tp.resolver,
		Notifier: tp.notifier,
		OnPlay: func(_ *GuildPlayer, tc *domain.TrackContext) {
			tp.hookMu.Lock()
			defer tp.hookMu.Unlock()
			tp.played = append(tp.played, tc)
		},
		OnError: func(_ *GuildPlayer, err error) {
			tp.hookMu.Lock()
			defer tp.hookMu.Unlock()
			tp.errs = append(tp.errs, err)
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	tp.GuildPlayer = NewGuildPlayer(context.Background(), testGuildID, tp.session, deps, testConfig())
	return tp
}

// finish simulates the session reporting that the current track ended.
func (tp *testPlayer) finish(reason domain.TrackEndReason) {
	current := tp.Current()
	encoded := ""
	if current != nil {
		encoded = current.Track().Encoded
	}
	tp.OnTrackEnd(context.Background(), encoded, reason)
}

func (tp *testPlayer) errors() []error {
	tp.hookMu.Lock()
	defer tp.hookMu.Unlock()
	return append([]error(nil), tp.errs...)
}

func contexts(ids ...int) []*domain.TrackContext {
	result := make([]*domain.TrackContext, len(ids))
	for i, id := range ids {
		result[i] = mockContext(strconv.Itoa(id), 1)
	}
	return result
}
