package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/mgpai22/dubmark/internal/audio"
	"github.com/mgpai22/dubmark/internal/config"
	"github.com/mgpai22/dubmark/internal/controller"
	"github.com/mgpai22/dubmark/internal/ledger"
	"github.com/mgpai22/dubmark/internal/logging"
	"github.com/mgpai22/dubmark/internal/mpv"
	"github.com/mgpai22/dubmark/internal/project"
	"github.com/mgpai22/dubmark/internal/session"
	"github.com/mgpai22/dubmark/internal/terminal"
	"github.com/mgpai22/dubmark/internal/toolpath"
	"github.com/mgpai22/dubmark/internal/ui"
	"github.com/mgpai22/dubmark/internal/video"
)

const mpvStopGrace = 3 * time.Second

// everything resolved before any external process starts
type sessionSetup struct {
	paths    project.Paths
	cfg      *config.Config
	sess     *session.Session
	mpvPath  string
	player   audio.CommandLauncher
	socket   string
	id       string
	fileLogs *logging.Logger
}

func runSession(cmd *cobra.Command, args []string) error {
	setup, err := prepareSession(args[0])
	if err != nil {
		return err
	}
	log := setup.fileLogs
	defer log.Close()

	logger.Infow("Starting session",
		"project", setup.paths.Root,
		"session_id", setup.id,
		"lines", setup.sess.Len(),
		"log", setup.paths.Log,
	)

	guard, err := terminal.Save(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	defer func() {
		if err := guard.Restore(); err != nil {
			log.Warnw("Terminal restore failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	guard.RestoreOnSignal(func(sig os.Signal) {
		log.Warnw("Received signal, shutting down", "signal", sig.String())
		cancel()
	})

	if info, err := video.NewProcessor(0).GetInfo(ctx, setup.paths.Video); err != nil {
		log.Warnw("Could not probe video", "error", err)
	} else {
		log.Infow("Reference video",
			"duration", info.Duration.String(),
			"width", info.Width,
			"height", info.Height,
			"fps", info.FrameRate,
			"frame", info.FrameDuration().String(),
		)
	}

	mpvOut := &zapio.Writer{Log: log.Desugar().Named("mpv"), Level: zap.DebugLevel}
	defer mpvOut.Close()

	proc, err := mpv.Launch(ctx, mpv.LaunchOptions{
		Binary:    setup.mpvPath,
		Video:     setup.paths.Video,
		Socket:    setup.socket,
		Geometry:  setup.cfg.MPV.Geometry,
		ExtraArgs: setup.cfg.MPV.ExtraArgs,
		Output:    mpvOut,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := proc.Stop(mpvStopGrace); err != nil {
			log.Warnw("Failed to stop mpv", "error", err)
		}
		_ = os.Remove(setup.socket)
	}()
	log.Infow("Started mpv", "pid", proc.Pid(), "socket", setup.socket)

	if err := waitForMPV(ctx, proc, setup); err != nil {
		return err
	}

	player := audio.NewPlayer(setup.player)
	ctrl := controller.New(controller.Deps{
		Session:   setup.sess,
		Ledger:    ledger.Open(setup.paths.Ledger),
		Media:     mpv.NewClient(setup.socket, setup.cfg.CommandTimeout),
		Player:    player,
		Clipboard: controller.SystemClipboard{},
		Paths:     setup.paths,
		Options: controller.Options{
			SeekStep:   setup.cfg.SeekStep,
			VolumeStep: setup.cfg.VolumeStep,
		},
		Logger: log,
	})

	title := fmt.Sprintf("dubmark: %s (%d lines)", filepath.Base(setup.paths.Root), setup.sess.Len())
	model, err := ui.NewModel(ctx, ctrl, controller.DefaultBindings, title)
	if err != nil {
		return err
	}

	runErr := ui.Run(ctx, model)

	// the quit key already did this; it also covers signals and UI errors
	if err := ctrl.Close(context.Background()); err != nil {
		log.Debugw("Shutdown cleanup", "error", err)
	}
	log.Infow("Session ended", "index", setup.sess.Index())

	if runErr != nil {
		if ctx.Err() != nil {
			return errors.New("session interrupted")
		}
		return runErr
	}
	return nil
}

// prepareSession validates the project and resolves tools and settings. Any
// error here is fatal and happens before the UI or mpv start.
func prepareSession(dir string) (*sessionSetup, error) {
	paths, err := project.Resolve(dir)
	if err != nil {
		return nil, err
	}
	if err := paths.Validate(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}

	sess, err := session.LoadManifest(paths.Manifest)
	if err != nil {
		return nil, err
	}
	if sess.Len() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", session.ErrEmptySession, paths.Manifest)
	}

	mpvPath, err := toolpath.Resolve(toolpath.MPV, cfg.MPV.Path)
	if err != nil {
		return nil, err
	}

	launcher, err := resolvePlayer(cfg)
	if err != nil {
		return nil, err
	}

	id := newSessionID()
	socket := cfg.SocketPath
	if socket == "" {
		socket = filepath.Join(os.TempDir(), "dubmark-"+id[len(id)-12:]+".sock")
	}

	fileLogs, err := logging.NewFileLogger(paths.Log, verbose)
	if err != nil {
		return nil, err
	}
	fileLogs = fileLogs.With("session_id", id)
	if src := cfg.Source(); src != "" {
		fileLogs.Infow("Loaded config", "path", src)
	}

	return &sessionSetup{
		paths:    paths,
		cfg:      cfg,
		sess:     sess,
		mpvPath:  mpvPath,
		player:   launcher,
		socket:   socket,
		id:       id,
		fileLogs: fileLogs,
	}, nil
}

// resolvePlayer picks the audio player: the configured one with its args, or
// the platform default.
func resolvePlayer(cfg *config.Config) (audio.CommandLauncher, error) {
	def := toolpath.DefaultAudioPlayer(runtime.GOOS)
	args := def.Args
	if cfg.Audio.Path != "" || cfg.Audio.Args != nil {
		args = cfg.Audio.Args
	}

	bin, err := toolpath.Resolve(def.Tool, cfg.Audio.Path)
	if err != nil {
		return audio.CommandLauncher{}, fmt.Errorf("audio player: %w", err)
	}
	return audio.CommandLauncher{Binary: bin, Args: args}, nil
}

// waitForMPV blocks until the control socket accepts connections, giving up
// early if mpv exits.
func waitForMPV(ctx context.Context, proc *mpv.Process, setup *sessionSetup) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-proc.Done():
			cancel()
		case <-waitCtx.Done():
		}
	}()

	start := time.Now()
	err := mpv.WaitReady(waitCtx, setup.socket, setup.cfg.ConnectTimeout, setup.cfg.ConnectInterval)
	if err != nil {
		select {
		case <-proc.Done():
			return fmt.Errorf("mpv exited before opening its control socket: %v", proc.Err())
		default:
		}
		return err
	}

	setup.fileLogs.Infow("mpv ready", "waited", time.Since(start).String())
	return nil
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
