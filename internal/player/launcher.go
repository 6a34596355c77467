// Package player hands audio clips to an external media player.
package player

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mmcdole/daisy/internal/book"
	"github.com/mmcdole/daisy/internal/config"
)

// Launcher plays clips in an external player
type Launcher struct {
	command   string   // configured player command, empty for auto-detection
	args      []string // additional arguments for the player
	startFlag string   // offset flag prefix, e.g., "--start=" or "-ss "
	endFlag   string   // stop flag prefix, e.g., "--end="
	logger    *slog.Logger

	// lookPath and start are swapped out in tests
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// playerFlags are the clip bounds flags of a known player
type playerFlags struct {
	start string
	end   string
}

// players registry, keyed by lower-case command base name
var players = map[string]playerFlags{
	"mpv":       {start: "--start=", end: "--end="},
	"mplayer":   {start: "-ss ", end: "-endpos "},
	"ffplay":    {start: "-ss ", end: "-t "},
	"vlc":       {start: "--start-time=", end: "--stop-time="},
	"cvlc":      {start: "--start-time=", end: "--stop-time="},
	"celluloid": {start: "--mpv-start=", end: "--mpv-end="},
	"haruna":    {start: "--mpv-start=", end: "--mpv-end="},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"mpv", "vlc", "ffplay"},
	"linux":   {"mpv", "mplayer", "ffplay", "cvlc", "vlc", "celluloid", "haruna"},
	"windows": {"mpv", "vlc", "ffplay"},
}

// NewLauncher creates a Launcher from the player configuration. Flags of
// known players are filled in when not configured.
func NewLauncher(cfg config.PlayerConfig, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Launcher{
		command:   cfg.Command,
		args:      cfg.Args,
		startFlag: cfg.StartFlag,
		endFlag:   cfg.EndFlag,
		logger:    logger,
		lookPath:  exec.LookPath,
		start:     func(name string, args ...string) error { return exec.Command(name, args...).Start() },
	}

	if cfg.Command != "" {
		if flags, ok := players[playerName(cfg.Command)]; ok {
			if l.startFlag == "" {
				l.startFlag = flags.start
			}
			if l.endFlag == "" {
				l.endFlag = flags.end
			}
			logger.Debug("auto-detected player flags", "player", playerName(cfg.Command),
				"start", l.startFlag, "end", l.endFlag)
		}
	}
	return l
}

// playerName strips directory, extension and case from a command
func playerName(command string) string {
	base := filepath.Base(command)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}

// offsetArgs renders a flag and a duration in seconds. Flags ending with a
// space take the value as a separate argument.
func offsetArgs(flag string, d time.Duration) []string {
	value := seconds(d)
	if strings.HasSuffix(flag, " ") {
		return []string{strings.TrimSuffix(flag, " "), value}
	}
	return []string{flag + value}
}

func seconds(d time.Duration) string {
	s := fmt.Sprintf("%.3f", d.Seconds())
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// buildArgs assembles player arguments for the clip [begin, end) of target.
// Some players take a duration rather than an end position; ffplay's -t and
// mplayer's -endpos are given the clip length.
func buildArgs(base []string, startFlag, endFlag, target string, begin, end time.Duration) []string {
	args := append([]string{}, base...)
	if begin > 0 && startFlag != "" {
		args = append(args, offsetArgs(startFlag, begin)...)
	}
	if end > begin && endFlag != "" {
		stop := end
		if endFlag == "-t " || endFlag == "-endpos " {
			stop = end - begin
		}
		args = append(args, offsetArgs(endFlag, stop)...)
	}
	return append(args, target)
}

// Args returns the command and arguments that would play the clip
func (l *Launcher) Args(target string, begin, end time.Duration) (string, []string) {
	if l.command != "" {
		return l.command, buildArgs(l.args, l.startFlag, l.endFlag, target, begin, end)
	}
	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"]
	}
	for _, name := range candidates {
		if _, err := l.lookPath(name); err != nil {
			continue
		}
		flags := players[name]
		return name, buildArgs(nil, flags.start, flags.end, target, begin, end)
	}
	return "", nil
}

// Launch plays target from begin to end in the configured player, the first
// detected player, or the system default handler. The player runs
// asynchronously.
func (l *Launcher) Launch(target string, begin, end time.Duration) error {
	command, args := l.Args(target, begin, end)
	if command != "" {
		l.logger.Info("launching player", "command", command, "args", args)
		if err := l.start(command, args...); err != nil {
			return fmt.Errorf("launch %s: %w", command, err)
		}
		return nil
	}

	l.logger.Info("no candidate players found, using system default")
	if begin > 0 || end > 0 {
		l.logger.Warn("system default player ignores clip bounds", "begin", begin, "end", end)
	}
	return l.launchDefault(target)
}

// PlayClip writes the clip audio to a temporary file and plays its bounds.
// The returned path is left for the caller to remove once playback is done.
func (l *Launcher) PlayClip(b *book.Book, c *book.Clip) (string, error) {
	data, err := b.ClipAudio(c)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "daisy-*"+filepath.Ext(c.Src))
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	l.logger.Debug("clip audio written", "clip", c.ID, "path", f.Name(), "bytes", len(data))
	begin := time.Duration(c.Begin * float64(time.Second))
	end := time.Duration(c.End * float64(time.Second))
	if err := l.Launch(f.Name(), begin, end); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// launchDefault opens the file using the system default handler
func (l *Launcher) launchDefault(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return l.start("open", target)
	case "windows":
		return l.start("cmd", "/c", "start", "", target)
	default:
		// Linux and other Unix-like systems
		return l.start("xdg-open", target)
	}
}
