package media

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/kiosk/internal/config"
	"github.com/pders01/kiosk/internal/debuglog"
)

var ErrNoLink = errors.New("nothing to open")

// Launcher opens item links in an external program chosen by media type.
type Launcher struct {
	players  map[Type]string
	opener   string
	detector *TypeDetector

	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
}

func NewLauncher(cfg config.MediaConfig) *Launcher {
	detector, err := NewTypeDetector()
	if err != nil {
		debuglog.Warnf("media types unavailable: %v", err)
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	l := &Launcher{
		detector: detector,
		lookPath: exec.LookPath,
		start:    startDetached,
	}
	l.configure(cfg, runtime.GOOS)
	return l
}

// configure resolves the configured candidates to installed programs.
// Types without one fall back to the opener.
func (l *Launcher) configure(cfg config.MediaConfig, goos string) {
	l.opener = cfg.Opener
	if l.opener == "" {
		l.opener = l.detector.DefaultOpener(goos)
	}

	l.players = map[Type]string{}
	for typ, candidates := range map[Type][]string{
		TypeVideo: cfg.Video,
		TypeAudio: cfg.Audio,
		TypeImage: cfg.Image,
		TypePDF:   cfg.PDF,
	} {
		if p := l.findCommand(candidates...); p != "" {
			l.players[typ] = p
		}
	}
}

// Command returns the program and arguments that would open link.
func (l *Launcher) Command(link string) (string, []string, error) {
	if link == "" {
		return "", nil, ErrNoLink
	}

	program := l.players[l.detector.DetectType(link)]
	if program == "" {
		program = l.opener
	}
	if program == "" {
		return "", nil, fmt.Errorf("no application found to open %s", link)
	}
	if program == "explorer" {
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}, nil
	}
	return program, []string{link}, nil
}

// Open starts the program for link without waiting for it.
func (l *Launcher) Open(link string) error {
	name, args, err := l.Command(link)
	if err != nil {
		return err
	}
	debuglog.Debugf("opening %s with %s", link, name)
	if err := l.start(exec.Command(name, args...)); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

func (l *Launcher) findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := l.lookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
