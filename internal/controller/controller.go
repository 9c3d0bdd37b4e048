package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"go.uber.org/multierr"

	"github.com/mgpai22/dubmark/internal/audio"
	"github.com/mgpai22/dubmark/internal/ledger"
	"github.com/mgpai22/dubmark/internal/logging"
	"github.com/mgpai22/dubmark/internal/project"
	"github.com/mgpai22/dubmark/internal/session"
	"github.com/mgpai22/dubmark/internal/timecode"
)

// media controller operations the keymap drives; satisfied by *mpv.Client
type Media interface {
	Position(ctx context.Context) (float64, error)
	SeekRelative(ctx context.Context, seconds float64) error
	SeekAbsolute(ctx context.Context, seconds float64) error
	FrameStep(ctx context.Context) error
	FrameBackStep(ctx context.Context) error
	TogglePause(ctx context.Context) error
	ToggleMute(ctx context.Context) error
	AddVolume(ctx context.Context, delta int) error
	Quit(ctx context.Context) error
}

// satisfied by *audio.Player
type Player interface {
	Play(path string) error
	PlayExclusive(path string) error
	StopAll() error
}

// satisfied by *ledger.Ledger
type Ledger interface {
	session.Recorder
	FindLast(id string) (ledger.Entry, bool, error)
}

type Clipboard interface {
	WriteAll(text string) error
}

// system clipboard via atotto/clipboard
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

type Options struct {
	SeekStep   float64
	VolumeStep int
}

type Deps struct {
	Session   *session.Session
	Ledger    Ledger
	Media     Media
	Player    Player
	Clipboard Clipboard
	Paths     project.Paths
	Options   Options
	Logger    *logging.Logger
}

// outcome of one dispatched action; an empty Status leaves the status line as is
type Result struct {
	Status     string
	Quit       bool
	ToggleHelp bool
}

type handler func(ctx context.Context) Result

// Controller maps actions onto the session, the ledger and the external
// players. Dispatch is called for one action at a time.
type Controller struct {
	session   *session.Session
	ledger    Ledger
	media     Media
	player    Player
	clipboard Clipboard
	paths     project.Paths
	opts      Options
	logger    *logging.Logger

	handlers map[Action]handler
}

func New(d Deps) *Controller {
	c := &Controller{
		session:   d.Session,
		ledger:    d.Ledger,
		media:     d.Media,
		player:    d.Player,
		clipboard: d.Clipboard,
		paths:     d.Paths,
		opts:      d.Options,
		logger:    d.Logger,
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	if c.opts.SeekStep <= 0 {
		c.opts.SeekStep = 2
	}
	if c.opts.VolumeStep <= 0 {
		c.opts.VolumeStep = 5
	}

	c.handlers = map[Action]handler{
		ActionQuit:         c.quit,
		ActionPause:        c.togglePause,
		ActionMute:         c.toggleMute,
		ActionMark:         c.mark,
		ActionSeekBack:     c.seek(-1),
		ActionSeekForward:  c.seek(1),
		ActionFrameBack:    c.frameStep(false),
		ActionFrameForward: c.frameStep(true),
		ActionPrevious:     c.navigate(c.session.MovePrevious),
		ActionNext:         c.navigate(c.session.MoveNext),
		ActionFirst:        c.navigate(func() { c.session.Seek(0) }),
		ActionLast:         c.navigate(func() { c.session.Seek(c.session.Len() - 1) }),
		ActionPlay:         c.playCurrent,
		ActionVolumeUp:     c.volume(1),
		ActionVolumeDown:   c.volume(-1),
		ActionGotoLast:     c.gotoLast,
		ActionCopyPosition: c.copyPosition,
		ActionStopAudio:    c.stopAudio,
		ActionHelp:         func(context.Context) Result { return Result{ToggleHelp: true} },
	}
	return c
}

func (c *Controller) Session() *session.Session {
	return c.session
}

// Dispatch runs a single action. Failures become status text; nothing here
// ends the session except ActionQuit.
func (c *Controller) Dispatch(ctx context.Context, a Action) Result {
	h, ok := c.handlers[a]
	if !ok {
		return Result{Status: fmt.Sprintf("Unknown action: %s", a)}
	}
	c.logger.Debugw("Dispatching action", "action", string(a), "index", c.session.Index())
	return h(ctx)
}

// Close quits the media controller and stops all audio.
func (c *Controller) Close(ctx context.Context) error {
	var errs error
	if c.media != nil {
		errs = multierr.Append(errs, c.media.Quit(ctx))
	}
	if c.player != nil {
		errs = multierr.Append(errs, c.player.StopAll())
	}
	return errs
}

func (c *Controller) quit(ctx context.Context) Result {
	if err := c.Close(ctx); err != nil {
		c.logger.Warnw("Shutdown reported errors", "error", err)
	}
	return Result{Status: "Quitting", Quit: true}
}

func (c *Controller) togglePause(ctx context.Context) Result {
	if err := c.media.TogglePause(ctx); err != nil {
		return c.mediaFailure("pause", err)
	}
	return Result{Status: "Toggled pause"}
}

func (c *Controller) toggleMute(ctx context.Context) Result {
	if err := c.media.ToggleMute(ctx); err != nil {
		return c.mediaFailure("mute", err)
	}
	return Result{Status: "Toggled mute"}
}

func (c *Controller) seek(direction float64) handler {
	return func(ctx context.Context) Result {
		step := c.opts.SeekStep
		if err := c.media.SeekRelative(ctx, direction*step); err != nil {
			return c.mediaFailure("seek", err)
		}
		verb := "forward"
		if direction < 0 {
			verb = "back"
		}
		return Result{Status: c.withPosition(ctx, fmt.Sprintf("Seeked %s %g seconds", verb, step))}
	}
}

func (c *Controller) frameStep(forward bool) handler {
	return func(ctx context.Context) Result {
		step, verb := c.media.FrameBackStep, "backward"
		if forward {
			step, verb = c.media.FrameStep, "forward"
		}
		if err := step(ctx); err != nil {
			return c.mediaFailure("frame step", err)
		}
		return Result{Status: c.withPosition(ctx, verb+" 1 frame")}
	}
}

func (c *Controller) volume(direction int) handler {
	return func(ctx context.Context) Result {
		delta := direction * c.opts.VolumeStep
		if err := c.media.AddVolume(ctx, delta); err != nil {
			return c.mediaFailure("volume", err)
		}
		return Result{Status: fmt.Sprintf("Volume %+d", delta)}
	}
}

func (c *Controller) navigate(move func()) handler {
	return func(context.Context) Result {
		move()
		return Result{}
	}
}

// mark records the video position for the current line, starts its clip
// alongside the video and advances to the next line.
func (c *Controller) mark(ctx context.Context) Result {
	line, err := c.session.Current()
	if err != nil {
		return Result{Status: "No subtitle lines loaded"}
	}

	pos, err := c.media.Position(ctx)
	if err != nil {
		return c.mediaFailure("mark", err)
	}

	clipNote := ""
	if path, err := c.paths.AudioPath(line.ID); err != nil {
		clipNote = fmt.Sprintf(" (%v)", err)
	} else if err := c.player.Play(path); err != nil {
		clipNote = " (" + c.audioFailure(line.ID, err) + ")"
	}

	entry, err := c.session.MarkCurrentAndAdvance(c.ledger, pos)
	if err != nil {
		c.logger.Errorw("Failed to record mark", "id", line.ID, "seconds", pos, "error", err)
		return Result{Status: fmt.Sprintf("NOT RECORDED %s: %v", line.ID, err)}
	}

	c.logger.Infow("Recorded mark", "id", entry.ID, "seconds", entry.Seconds, "index", line.Index)
	return Result{Status: fmt.Sprintf("%.3f: %s%s", entry.Seconds, entry.ID, clipNote)}
}

func (c *Controller) playCurrent(ctx context.Context) Result {
	line, err := c.session.Current()
	if err != nil {
		return Result{Status: "No subtitle lines loaded"}
	}

	path, err := c.paths.AudioPath(line.ID)
	if err != nil {
		return Result{Status: err.Error()}
	}
	if err := c.player.Play(path); err != nil {
		return Result{Status: c.audioFailure(line.ID, err)}
	}
	return Result{Status: "Playing: " + line.ID}
}

// gotoLast seeks the video to the newest mark of the current line and plays
// its clip on its own.
func (c *Controller) gotoLast(ctx context.Context) Result {
	line, err := c.session.Current()
	if err != nil {
		return Result{Status: "No subtitle lines loaded"}
	}

	entry, found, err := c.ledger.FindLast(line.ID)
	if err != nil {
		c.logger.Errorw("Failed to read ledger", "error", err)
		return Result{Status: fmt.Sprintf("Ledger read failed: %v", err)}
	}
	if !found {
		return Result{Status: fmt.Sprintf("Audio file %s not found in timestamp list", line.ID)}
	}

	path, err := c.paths.AudioPath(line.ID)
	if err != nil {
		return Result{Status: err.Error()}
	}
	// check the clip before moving the video so a missing file leaves it in place
	if err := audio.CheckAsset(path); err != nil {
		return Result{Status: c.audioFailure(line.ID, err)}
	}

	if err := c.media.SeekAbsolute(ctx, entry.Seconds); err != nil {
		return c.mediaFailure("seek", err)
	}
	if err := c.player.PlayExclusive(path); err != nil {
		return Result{Status: c.audioFailure(line.ID, err)}
	}
	return Result{Status: fmt.Sprintf("Playing: %s at %.3f", line.ID, entry.Seconds)}
}

func (c *Controller) copyPosition(ctx context.Context) Result {
	pos, err := c.media.Position(ctx)
	if err != nil {
		return c.mediaFailure("copy", err)
	}
	tc := timecode.Format(pos)
	if c.clipboard == nil {
		return Result{Status: "Clipboard unavailable: " + tc}
	}
	if err := c.clipboard.WriteAll(tc); err != nil {
		c.logger.Warnw("Clipboard write failed", "error", err)
		return Result{Status: fmt.Sprintf("Clipboard unavailable (%v): %s", err, tc)}
	}
	return Result{Status: "Copied " + tc}
}

func (c *Controller) stopAudio(context.Context) Result {
	if err := c.player.StopAll(); err != nil {
		c.logger.Warnw("Failed to stop audio", "error", err)
		return Result{Status: fmt.Sprintf("Stopping audio failed: %v", err)}
	}
	return Result{Status: "Stopped audio"}
}

// appends the current timecode, or the query failure, to msg
func (c *Controller) withPosition(ctx context.Context, msg string) string {
	pos, err := c.media.Position(ctx)
	if err != nil {
		c.logger.Warnw("Position query failed", "error", err)
		return msg + " : position unavailable"
	}
	return msg + " : " + timecode.Format(pos)
}

func (c *Controller) mediaFailure(op string, err error) Result {
	c.logger.Warnw("Media command failed", "op", op, "error", err)
	return Result{Status: fmt.Sprintf("Video player %s failed: %v", op, err)}
}

func (c *Controller) audioFailure(id string, err error) string {
	if errors.Is(err, audio.ErrAssetNotFound) {
		path, _ := c.paths.AudioPath(id)
		return "Audio file not found: " + path
	}
	c.logger.Warnw("Audio playback failed", "id", id, "error", err)
	return fmt.Sprintf("Audio playback failed for %s: %v", id, err)
}
