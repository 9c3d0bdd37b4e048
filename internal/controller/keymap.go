package controller

import (
	"strings"
	"unicode/utf8"
)

// operation a key press triggers
type Action string

const (
	ActionQuit         Action = "quit"
	ActionPause        Action = "pause"
	ActionMute         Action = "mute"
	ActionMark         Action = "mark"
	ActionSeekBack     Action = "seek-back"
	ActionSeekForward  Action = "seek-forward"
	ActionFrameBack    Action = "frame-back"
	ActionFrameForward Action = "frame-forward"
	ActionPrevious     Action = "previous"
	ActionNext         Action = "next"
	ActionFirst        Action = "first"
	ActionLast         Action = "last"
	ActionPlay         Action = "play"
	ActionVolumeUp     Action = "volume-up"
	ActionVolumeDown   Action = "volume-down"
	ActionGotoLast     Action = "goto-last"
	ActionCopyPosition Action = "copy-position"
	ActionStopAudio    Action = "stop-audio"
	ActionHelp         Action = "help"
)

// keys bound to an action plus the help text shown for it
type Binding struct {
	Keys   []string
	Action Action
	Help   string
}

// DefaultBindings is the operator keyboard layout. Key names follow the
// strings bubbletea reports for key presses.
var DefaultBindings = []Binding{
	{Keys: []string{"q", "ctrl+c"}, Action: ActionQuit, Help: "quit"},
	{Keys: []string{"p", " ", "space"}, Action: ActionPause, Help: "toggle pause"},
	{Keys: []string{"m"}, Action: ActionMute, Help: "toggle mute"},
	{Keys: []string{"t"}, Action: ActionMark, Help: "mark current line at the video position and advance"},
	{Keys: []string{"b"}, Action: ActionSeekBack, Help: "seek back"},
	{Keys: []string{"f"}, Action: ActionSeekForward, Help: "seek forward"},
	{Keys: []string{"["}, Action: ActionFrameBack, Help: "step one frame back"},
	{Keys: []string{"]"}, Action: ActionFrameForward, Help: "step one frame forward"},
	{Keys: []string{"up", "k"}, Action: ActionPrevious, Help: "previous line"},
	{Keys: []string{"down", "j"}, Action: ActionNext, Help: "next line"},
	{Keys: []string{"home"}, Action: ActionFirst, Help: "first line"},
	{Keys: []string{"end"}, Action: ActionLast, Help: "last line"},
	{Keys: []string{"enter"}, Action: ActionPlay, Help: "play the current line's audio"},
	{Keys: []string{"+", "="}, Action: ActionVolumeUp, Help: "volume up"},
	{Keys: []string{"-"}, Action: ActionVolumeDown, Help: "volume down"},
	{Keys: []string{"g"}, Action: ActionGotoLast, Help: "jump to the last mark of the current line and play it"},
	{Keys: []string{"c"}, Action: ActionCopyPosition, Help: "copy the video position to the clipboard"},
	{Keys: []string{"s"}, Action: ActionStopAudio, Help: "stop all audio"},
	{Keys: []string{"?"}, Action: ActionHelp, Help: "show or hide this help"},
}

// key string -> action
type Keymap map[string]Action

// NewKeymap indexes bindings by key. Single letters match either case, the
// way a shortcut does regardless of shift or caps lock.
func NewKeymap(bindings []Binding) Keymap {
	km := make(Keymap)
	for _, b := range bindings {
		for _, k := range b.Keys {
			km[k] = b.Action
			if utf8.RuneCountInString(k) == 1 {
				km[strings.ToUpper(k)] = b.Action
				km[strings.ToLower(k)] = b.Action
			}
		}
	}
	return km
}

func (k Keymap) Lookup(key string) (Action, bool) {
	a, ok := k[key]
	return a, ok
}
