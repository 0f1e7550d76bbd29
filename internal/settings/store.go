package settings

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/lowaak/cardiosplit/internal/events"
)

const (
	keyLastTotal = "last_total_time"
	keyLastRun   = "last_run_time"
	keyLastWalk  = "last_walk_time"
	keyTheme     = "selected_theme"
)

// Theme is the color scheme of the terminal UI
type Theme string

const (
	ThemeMaroon Theme = "maroon"
	ThemeBlack  Theme = "black"
	ThemeWhite  Theme = "white"
)

// Themes lists the selectable themes in menu order
func Themes() []Theme {
	return []Theme{ThemeMaroon, ThemeBlack, ThemeWhite}
}

// ParseTheme accepts a theme name in any case
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Themes() {
		if t == known {
			return t, nil
		}
	}
	return ThemeMaroon, fmt.Errorf("unknown theme %q", s)
}

// LastDurations are the duration fields as the user last typed them
type LastDurations struct {
	Total string
	Run   string
	Walk  string
}

// Store persists user preferences in a small JSON file
type Store struct {
	mu         sync.Mutex
	v          *viper.Viper
	filePath   string
	themeEvent *events.CallbackEvent[Theme]
	logger     *log.Logger
}

// DefaultPath returns ~/.cardiosplit/settings.json
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".cardiosplit", "settings.json")
}

// NewStore loads filePath, or DefaultPath when empty. A missing or broken
// file leaves the defaults in place.
func NewStore(filePath string, logger *log.Logger) *Store {
	if logger == nil {
		panic("SettingsStore: logger cannot be nil")
	}
	if filePath == "" {
		filePath = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetConfigType("json")
	v.SetDefault(keyLastTotal, "")
	v.SetDefault(keyLastRun, "")
	v.SetDefault(keyLastWalk, "")
	v.SetDefault(keyTheme, string(ThemeMaroon))

	s := &Store{
		v:          v,
		filePath:   filePath,
		themeEvent: events.NewCallbackEvent[Theme](true),
		logger:     logger,
	}
	s.load()
	s.themeEvent.Notify(s.Theme())
	return s
}

func (s *Store) Path() string {
	return s.filePath
}

func (s *Store) LastDurations() LastDurations {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LastDurations{
		Total: s.v.GetString(keyLastTotal),
		Run:   s.v.GetString(keyLastRun),
		Walk:  s.v.GetString(keyLastWalk),
	}
}

// SaveDurations remembers the durations of a successfully started session
func (s *Store) SaveDurations(d LastDurations) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Printf("SettingsStore: SaveDurations total=%q run=%q walk=%q", d.Total, d.Run, d.Walk)
	s.v.Set(keyLastTotal, d.Total)
	s.v.Set(keyLastRun, d.Run)
	s.v.Set(keyLastWalk, d.Walk)
	return s.save()
}

func (s *Store) Theme() Theme {
	s.mu.Lock()
	raw := s.v.GetString(keyTheme)
	s.mu.Unlock()

	theme, err := ParseTheme(raw)
	if err != nil {
		return ThemeMaroon
	}
	return theme
}

// SetTheme stores theme and notifies theme listeners
func (s *Store) SetTheme(theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}

	s.mu.Lock()
	s.logger.Printf("SettingsStore: SetTheme %s", theme)
	s.v.Set(keyTheme, string(theme))
	err := s.save()
	s.mu.Unlock()

	// External call after releasing lock
	s.themeEvent.Notify(theme)
	return err
}

// ListenToTheme registers fn for theme changes. The current theme is
// delivered immediately. Returns a deregistration function.
func (s *Store) ListenToTheme(fn func(Theme)) func() {
	return s.themeEvent.Listen(fn)
}

func (s *Store) load() {
	if err := s.v.ReadInConfig(); err != nil {
		s.logger.Printf("SettingsStore: load %s (using defaults): %v", s.filePath, err)
		return
	}
	s.logger.Printf("SettingsStore: load %s -> theme=%s", s.filePath, s.v.GetString(keyTheme))
}

// save must be called with mu held
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := s.v.WriteConfigAs(s.filePath); err != nil {
		return fmt.Errorf("write settings %s: %w", s.filePath, err)
	}
	return nil
}
