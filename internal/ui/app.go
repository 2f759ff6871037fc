package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tubetop/internal/channels"
	"tubetop/internal/config"
	"tubetop/internal/feed"
	"tubetop/internal/logging"
	"tubetop/internal/store"
	"tubetop/internal/youtube"
)

const toastDuration = 3 * time.Second

// pane identifies which panel has focus.
type pane int

const (
	paneFeed pane = iota
	paneChannels
)

// inputMode identifies what the text input is collecting, if anything.
type inputMode int

const (
	inputNone inputMode = iota
	inputAddChannel
	inputAPIKey
)

// App is the root Bubble Tea model.
type App struct {
	store    *store.Store
	registry *channels.Registry
	cfg      *config.Config

	apiKey string
	agg    *feed.Aggregator

	watched *store.IDSet
	later   *store.IDSet
	hidden  *store.IDSet

	cache []feed.Video
	view  []feed.Video
	stats feed.Stats

	sortProp    feed.SortProperty
	sortDir     feed.SortDirection
	durFilter   feed.DurationFilter
	laterFilter feed.LaterFilter

	focus     pane
	cursor    int
	chCursor  int
	mode      inputMode
	input     textinput.Model
	spin      spinner.Model
	loading   bool
	errBanner string
	toast     string
	width     int
	height    int
	ready     bool
}

// New wires an App against the store and registry. apiKey may be empty; the
// user can set it from inside the dashboard.
func New(s *store.Store, registry *channels.Registry, cfg *config.Config, apiKey string) App {
	ti := textinput.New()
	ti.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := App{
		store:       s,
		registry:    registry,
		cfg:         cfg,
		watched:     store.NewIDSet(s, store.KeyWatched),
		later:       store.NewIDSet(s, store.KeyLater),
		hidden:      store.NewIDSet(s, store.KeyHidden),
		sortProp:    feed.SortProperty(cfg.UI.Sort),
		sortDir:     feed.SortDirection(cfg.UI.Direction),
		durFilter:   feed.AllDurations,
		laterFilter: feed.LaterAll,
		input:       ti,
		spin:        sp,
	}
	a.setAPIKey(apiKey)
	return a
}

// setAPIKey stores the credential and rebuilds the aggregator's client.
func (a *App) setAPIKey(key string) {
	a.apiKey = key
	if err := a.store.SetCredential(key); err != nil {
		logging.Error("failed to persist credential", "error", err)
	}
	a.agg = feed.NewAggregator(youtube.NewClient(key), a.store)
}

// narrow reports whether the terminal is in the narrow viewing context,
// where the hidden set applies and the channel panel collapses.
func (a App) narrow() bool {
	return a.width > 0 && a.width <= a.cfg.UI.NarrowWidth
}

// Init loads the cache and starts the spinner.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.loadCacheCmd())
}

func (a App) loadCacheCmd() tea.Cmd {
	s := a.store
	return func() tea.Msg {
		videos, err := feed.LoadCache(s)
		return CacheLoaded{Videos: videos, Err: err}
	}
}

func (a App) refreshCmd() tea.Cmd {
	agg := a.agg
	reg := a.registry.All()
	return func() tea.Msg {
		result, err := agg.Refresh(context.Background(), reg)
		return RefreshDone{Result: result, Err: err}
	}
}

func (a App) resolveCmd(identifier string) tea.Cmd {
	client := youtube.NewClient(a.apiKey)
	return func() tea.Msg {
		ch, err := client.ResolveChannel(context.Background(), identifier)
		if err != nil {
			return ChannelResolved{Err: err}
		}
		return ChannelResolved{Channel: channels.Channel{
			ID:                ch.ID,
			Title:             ch.Title,
			UploadsPlaylistID: ch.UploadsPlaylistID,
		}}
	}
}

func (a *App) showToast(text string) tea.Cmd {
	a.toast = text
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpired{} })
}

// recompute rebuilds the visible feed from the cache. Pure and cheap; runs
// after every relevant state change without re-fetching.
func (a *App) recompute() {
	a.view, a.stats = feed.ComputeView(a.cache, a.registry.All(), feed.ViewOptions{
		Sort:      a.sortProp,
		Direction: a.sortDir,
		Duration:  a.durFilter,
		Later:     a.laterFilter,
		Narrow:    a.narrow(),
		Shuffle:   a.cfg.UI.Shuffle,
		IsWatched: a.watched.Lookup(),
		IsHidden:  a.hidden.Lookup(),
		IsLater:   a.later.Lookup(),
	})
	if a.cursor >= len(a.view) {
		a.cursor = len(a.view) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// maybeFetch triggers the fetch stage when the state machine calls for one.
func (a *App) maybeFetch() tea.Cmd {
	switch feed.Evaluate(a.apiKey, a.registry.All(), a.cache) {
	case feed.StateNeedCredential:
		a.errBanner = "YouTube API key is not set. Press K to add it."
		return nil
	case feed.StateNoChannels:
		if len(a.cache) > 0 {
			a.cache = nil
			if err := feed.ClearCache(a.store); err != nil {
				logging.Error("failed to clear cache", "error", err)
			}
			a.recompute()
		}
		return nil
	case feed.StateNeedsFetch:
		if !a.loading {
			a.loading = true
			return a.refreshCmd()
		}
	}
	return nil
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.mode != inputNone {
			return a.handleInputKey(msg)
		}
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		wasNarrow := a.narrow()
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		if a.narrow() != wasNarrow {
			a.recompute()
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case CacheLoaded:
		if msg.Err != nil {
			a.errBanner = fmt.Sprintf("could not read cache: %v", msg.Err)
			return a, nil
		}
		a.cache = msg.Videos
		a.recompute()
		return a, a.maybeFetch()

	case RefreshDone:
		a.loading = false
		if msg.Err != nil {
			if msg.Err == feed.ErrRefreshInFlight {
				return a, nil
			}
			// Total failure: stale cache stays; banner replaces only on
			// the next successful aggregation.
			a.errBanner = msg.Err.Error()
			if msg.Result != nil && len(msg.Result.Errors) > 0 {
				a.errBanner = msg.Result.ErrorBanner()
			}
			return a, nil
		}
		a.cache = msg.Result.Videos
		a.recompute()
		if len(msg.Result.Errors) > 0 {
			a.errBanner = msg.Result.ErrorBanner()
		} else {
			a.errBanner = ""
		}
		if len(msg.Result.Videos) == 0 && len(msg.Result.Errors) == 0 {
			return a, a.showToast("no videos found - channels may only have shorts")
		}
		return a, nil

	case ChannelResolved:
		if msg.Err != nil {
			a.errBanner = fmt.Sprintf("channel lookup failed: %v", msg.Err)
			return a, nil
		}
		added, err := a.registry.Add(msg.Channel)
		if err != nil {
			a.errBanner = fmt.Sprintf("could not save channel: %v", err)
			return a, nil
		}
		if !added {
			return a, a.showToast(fmt.Sprintf("%s is already registered", msg.Channel.Title))
		}
		a.recompute()
		toast := a.showToast(fmt.Sprintf("added %s", msg.Channel.Title))
		if fetch := a.maybeFetch(); fetch != nil {
			return a, tea.Batch(toast, fetch)
		}
		return a, toast

	case CredentialChanged:
		if msg.APIKey != a.apiKey {
			a.setAPIKey(msg.APIKey)
			a.errBanner = ""
			if fetch := a.maybeFetch(); fetch != nil {
				return a, fetch
			}
		}
		return a, nil

	case toastExpired:
		a.toast = ""
		return a, nil
	}

	return a, nil
}

// handleInputKey processes keys while the text input is active.
func (a App) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = inputNone
		a.input.Reset()
		return a, nil

	case "enter":
		value := strings.TrimSpace(a.input.Value())
		mode := a.mode
		a.mode = inputNone
		a.input.Reset()
		if value == "" {
			return a, nil
		}
		switch mode {
		case inputAddChannel:
			if a.apiKey == "" {
				a.errBanner = "YouTube API key is not set. Press K to add it."
				return a, nil
			}
			return a, a.resolveCmd(value)
		case inputAPIKey:
			a.setAPIKey(value)
			a.errBanner = ""
			toast := a.showToast("API key saved")
			if fetch := a.maybeFetch(); fetch != nil {
				return a, tea.Batch(toast, fetch)
			}
			return a, toast
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKey processes normal-mode keys.
func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "tab":
		if a.focus == paneFeed {
			a.focus = paneChannels
		} else {
			a.focus = paneFeed
		}
		return a, nil

	case "a":
		a.mode = inputAddChannel
		a.input.Placeholder = "channel id, username, or @handle"
		a.input.Focus()
		return a, textinput.Blink
	}

	if a.focus == paneChannels {
		return a.handleChannelKey(msg)
	}
	return a.handleFeedKey(msg)
}

func (a App) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if a.cursor < len(a.view)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "g", "home":
		a.cursor = 0
	case "G", "end":
		if len(a.view) > 0 {
			a.cursor = len(a.view) - 1
		}

	case "K":
		a.mode = inputAPIKey
		a.input.Placeholder = "YouTube Data API key"
		a.input.Focus()
		return a, textinput.Blink

	case "enter", "o":
		if v, ok := a.selected(); ok {
			if err := openURL(v.URL); err != nil {
				a.errBanner = fmt.Sprintf("could not open browser: %v", err)
			}
		}

	case "w":
		if v, ok := a.selected(); ok {
			if err := a.watched.Add(v.ID); err != nil {
				a.errBanner = fmt.Sprintf("could not mark watched: %v", err)
				return a, nil
			}
			a.recompute()
			return a, a.showToast("marked watched")
		}

	case "l":
		if v, ok := a.selected(); ok {
			saved, err := a.later.Toggle(v.ID)
			if err != nil {
				a.errBanner = fmt.Sprintf("could not update saved list: %v", err)
				return a, nil
			}
			a.recompute()
			if saved {
				return a, a.showToast("saved for later")
			}
			return a, a.showToast("removed from saved")
		}

	case "x":
		if v, ok := a.selected(); ok {
			if err := a.hidden.Add(v.ID); err != nil {
				a.errBanner = fmt.Sprintf("could not hide video: %v", err)
				return a, nil
			}
			a.recompute()
			return a, a.showToast("hidden on this device")
		}

	case "X":
		if err := a.hidden.Clear(); err != nil {
			a.errBanner = fmt.Sprintf("could not clear hidden list: %v", err)
			return a, nil
		}
		a.recompute()
		return a, a.showToast("hidden list cleared")

	case "s":
		a.sortProp = nextSort(a.sortProp)
		a.recompute()
	case "S":
		if a.sortDir == feed.Descending {
			a.sortDir = feed.Ascending
		} else {
			a.sortDir = feed.Descending
		}
		a.recompute()
	case "d":
		a.durFilter = nextDuration(a.durFilter)
		a.recompute()
	case "L":
		a.laterFilter = nextLater(a.laterFilter)
		a.recompute()

	case "f", "r":
		if a.apiKey == "" {
			return a, a.showToast("set the API key first (K)")
		}
		if a.loading {
			return a, nil
		}
		a.loading = true
		return a, tea.Batch(a.showToast("refreshing videos..."), a.refreshCmd())

	case "c":
		a.cache = nil
		if err := feed.ClearCache(a.store); err != nil {
			a.errBanner = fmt.Sprintf("could not clear cache: %v", err)
			return a, nil
		}
		a.recompute()
		toast := a.showToast("video cache cleared")
		if fetch := a.maybeFetch(); fetch != nil {
			return a, tea.Batch(toast, fetch)
		}
		return a, toast
	}

	return a, nil
}

func (a App) handleChannelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := a.registry.Len()
	switch msg.String() {
	case "j", "down":
		if a.chCursor < n-1 {
			a.chCursor++
		}
	case "k", "up":
		if a.chCursor > 0 {
			a.chCursor--
		}

	case "J":
		if err := a.registry.Reorder(a.chCursor, a.chCursor+1); err == nil && a.chCursor < n-1 {
			a.chCursor++
			a.recompute()
		}
	case "K":
		if err := a.registry.Reorder(a.chCursor, a.chCursor-1); err == nil && a.chCursor > 0 {
			a.chCursor--
			a.recompute()
		}

	case "D", "backspace":
		list := a.registry.All()
		if a.chCursor < len(list) {
			removed := list[a.chCursor]
			if err := a.registry.Remove(removed.ID); err != nil {
				a.errBanner = fmt.Sprintf("could not remove channel: %v", err)
				return a, nil
			}
			if a.chCursor >= a.registry.Len() && a.chCursor > 0 {
				a.chCursor--
			}
			a.recompute()
			toast := a.showToast(fmt.Sprintf("removed %s", removed.Title))
			if fetch := a.maybeFetch(); fetch != nil {
				return a, tea.Batch(toast, fetch)
			}
			return a, toast
		}
	}
	return a, nil
}

func (a App) selected() (feed.Video, bool) {
	if len(a.view) == 0 || a.cursor >= len(a.view) {
		return feed.Video{}, false
	}
	return a.view[a.cursor], true
}

func nextSort(p feed.SortProperty) feed.SortProperty {
	switch p {
	case feed.SortRating:
		return feed.SortViews
	case feed.SortViews:
		return feed.SortPublished
	case feed.SortPublished:
		return feed.SortTitle
	default:
		return feed.SortRating
	}
}

func nextDuration(f feed.DurationFilter) feed.DurationFilter {
	switch f {
	case feed.AllDurations:
		return feed.Short
	case feed.Short:
		return feed.Medium
	case feed.Medium:
		return feed.Long
	default:
		return feed.AllDurations
	}
}

func nextLater(f feed.LaterFilter) feed.LaterFilter {
	switch f {
	case feed.LaterAll:
		return feed.LaterOnly
	case feed.LaterOnly:
		return feed.LaterExclude
	default:
		return feed.LaterAll
	}
}

// View renders the dashboard.
func (a App) View() string {
	if !a.ready {
		return "loading..."
	}

	var b strings.Builder

	contentHeight := a.height - 2 // status bar + header
	if a.errBanner != "" {
		contentHeight -= strings.Count(a.errBanner, "\n") + 1
	}
	if a.mode != inputNone {
		contentHeight -= 1
	}

	b.WriteString(titleStyle.Render("tubetop"))
	if a.loading {
		b.WriteString(" " + a.spin.View() + dimStyle.Render(" fetching..."))
	}
	b.WriteString("\n")

	if a.narrow() {
		b.WriteString(a.renderFeed(a.width, contentHeight))
	} else {
		const channelWidth = 34
		left := a.renderChannels(channelWidth, contentHeight)
		right := a.renderFeed(a.width-channelWidth-4, contentHeight)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	}
	b.WriteString("\n")

	if a.errBanner != "" {
		b.WriteString(errorStyle.Render(a.errBanner))
		b.WriteString("\n")
	}

	if a.mode != inputNone {
		prompt := "add channel: "
		if a.mode == inputAPIKey {
			prompt = "api key: "
		}
		b.WriteString(prompt + a.input.View())
		b.WriteString("\n")
	}

	b.WriteString(a.statusBar())
	return b.String()
}

func (a App) renderFeed(width, height int) string {
	style := paneBorder
	if a.focus == paneFeed {
		style = activePaneBorder
	}
	if width < 20 {
		width = 20
	}

	if len(a.view) == 0 {
		empty := "no videos to show"
		switch {
		case a.apiKey == "" && a.registry.Len() > 0:
			empty = "set the YouTube API key (K) to fetch videos"
		case a.registry.Len() == 0:
			empty = "add a channel (a) to get started"
		}
		return style.Width(width).Height(height).Render(dimStyle.Render(empty))
	}

	// Scroll window keeps the cursor visible.
	rows := height - 2
	if rows < 1 {
		rows = 1
	}
	start := 0
	if a.cursor >= rows {
		start = a.cursor - rows + 1
	}
	end := start + rows
	if end > len(a.view) {
		end = len(a.view)
	}

	var lines []string
	for i := start; i < end; i++ {
		lines = append(lines, a.renderVideo(a.view[i], i == a.cursor, width-4))
	}
	return style.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (a App) renderVideo(v feed.Video, selected bool, width int) string {
	marker := "  "
	if a.later.Has(v.ID) {
		marker = laterStyle.Render("* ")
	}

	title := v.Title
	meta := fmt.Sprintf(" %s · %s · %s · %s",
		v.ChannelTitle,
		formatViews(v.Views),
		formatDuration(v.DurationSeconds),
		v.PublishedAt.Format("Jan 2"),
	)

	avail := width - lipgloss.Width(meta) - 2
	if avail > 0 && lipgloss.Width(title) > avail {
		title = truncate(title, avail)
	}

	line := marker + title + dimStyle.Render(meta)
	if selected {
		return selectedStyle.Render("> " + marker + title + meta)
	}
	return line
}

func (a App) renderChannels(width, height int) string {
	style := paneBorder
	if a.focus == paneChannels {
		style = activePaneBorder
	}

	list := a.registry.All()
	lines := []string{channelStyle.Render("channels")}
	if len(list) == 0 {
		lines = append(lines, dimStyle.Render("none yet - press a"))
	}
	for i, ch := range list {
		line := fmt.Sprintf("%d. %s", i+1, truncate(ch.Title, width-8))
		if a.focus == paneChannels && i == a.chCursor {
			line = selectedStyle.Render("> " + line)
		}
		lines = append(lines, line)
	}
	return style.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (a App) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d shown", a.stats.Shown),
		fmt.Sprintf("avg rating %.1f", a.stats.AverageRating),
		fmt.Sprintf("sort %s/%s", a.sortProp, a.sortDir),
	}
	if a.durFilter != feed.AllDurations {
		parts = append(parts, fmt.Sprintf("dur %s", a.durFilter))
	}
	if a.laterFilter != feed.LaterAll {
		parts = append(parts, fmt.Sprintf("saved %s", a.laterFilter))
	}
	if a.toast != "" {
		parts = append(parts, toastStyle.Render(a.toast))
	}
	parts = append(parts, dimStyle.Render("w watch · l later · x hide · s/S sort · d/L filter · f refresh · q quit"))
	return statusStyle.Width(a.width).Render(" " + strings.Join(parts, " | "))
}

func formatViews(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM views", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK views", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d views", n)
	}
}

func formatDuration(seconds int) string {
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
