package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/photosync/internal/app"
	"github.com/dmitrijs2005/photosync/internal/camera"
	"github.com/dmitrijs2005/photosync/internal/camera/simcam"
	"github.com/dmitrijs2005/photosync/internal/config"
	"github.com/dmitrijs2005/photosync/internal/filex"
	"github.com/dmitrijs2005/photosync/internal/gallery"
	"github.com/dmitrijs2005/photosync/internal/logging"
	"github.com/dmitrijs2005/photosync/internal/mediastore"
	"github.com/dmitrijs2005/photosync/internal/platform"
	"github.com/dmitrijs2005/photosync/internal/postprocess"
	"github.com/dmitrijs2005/photosync/internal/scheduler"
	"github.com/dmitrijs2005/photosync/internal/storage"
	"github.com/dmitrijs2005/photosync/internal/upload"
)

// App is the terminal front end around an app.Shell.
type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer

	grants       *platform.Grants
	db           *sql.DB
	index        *mediastore.Index
	shell        *app.Shell
	disp         *app.Dispatcher
	sched        *scheduler.Scheduler
	preview      *previewSurface
	progress     *progressPrinter
	closeFns     []func() error
	drainTimeout time.Duration
	startedAt    time.Time
}

// defaultDrainTimeout bounds how long Close waits for running uploads.
const defaultDrainTimeout = 10 * time.Second

// NewApp builds every component from c. Photos, the media index and the
// remote store are opened here; nothing runs until Run.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stdout
	}

	logger := logging.New(os.Stderr, c.LogLevel, c.LogFormat)

	dir, err := filex.EnsureDir(c.PicturesDir)
	if err != nil {
		return nil, fmt.Errorf("pictures dir: %w", err)
	}

	rotation, err := camera.RotationFromDegrees(c.DisplayRotation)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:       c,
		logger:       logger,
		out:          out,
		grants:       platform.NewGrants(c.Permissions.Camera, c.Permissions.Storage),
		preview:      &previewSurface{},
		progress:     newProgressPrinter(out),
		drainTimeout: defaultDrainTimeout,
		startedAt:    time.Now(),
	}

	dsn := c.IndexDSN
	if dsn != ":memory:" && !filepath.IsAbs(dsn) && filepath.Dir(dsn) == "." {
		dsn = filepath.Join(dir, dsn)
	}
	a.db, err = mediastore.OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	a.closeFns = append(a.closeFns, a.db.Close)
	a.index = mediastore.NewIndex(a.db, a.grants.StorageGranted)

	scanner := mediastore.NewScanner(dir, a.grants.StorageGranted)
	var lister mediastore.Lister = scanner
	if c.GallerySource == config.GalleryIndex {
		lister = a.index
		if a.grants.StorageGranted() {
			n, err := a.index.Import(ctx, scanner)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("import photos: %w", err)
			}
			if n > 0 {
				logger.Info(ctx, "photos imported into index", "count", n)
			}
		}
	}

	store, closeStore, err := storage.Open(ctx, c.Store)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("object store: %w", err)
	}
	a.closeFns = append(a.closeFns, closeStore)

	a.disp = app.NewDispatcher(logger)
	a.shell = app.NewShell(app.Deps{
		Caps:            a.grants,
		Cameras:         simcam.NewManager(),
		Lister:          lister,
		Index:           a.index,
		Processor:       postprocess.New(dir, logger),
		Uploader:        upload.NewClient(store, c.Store.KeyPrefix, logger),
		Presenter:       gallery.NewPresenter(out),
		Dispatcher:      a.disp,
		Logger:          logger,
		CameraIndex:     c.CameraIndex,
		DisplayRotation: rotation,
		Surface:         a.preview,
		OnUpload:        a.progress.handle,
	})

	a.sched, err = scheduler.New(c.SyncSchedule, func(ctx context.Context) error {
		_, err := a.shell.SyncPending(ctx)
		return err
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// Run shows the gallery and reads commands from in until EOF or exit.
func (a *App) Run(ctx context.Context, in io.Reader) {
	defer a.Close()

	printlnFn("photosync (type 'help' for commands)")
	a.sched.Start()

	if err := a.Gallery(ctx); err != nil {
		printlnFn("Error:", err.Error())
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(in))
}

// Close stops the scheduler, finishes an open capture screen, waits up to
// drainTimeout for running uploads to be recorded, then releases the index
// and the store.
func (a *App) Close() {
	if a.sched != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.sched.Stop(stopCtx); err != nil {
			a.logger.Warn(stopCtx, "stop scheduler", "error", err.Error())
		}
		cancel()
	}
	if a.shell != nil {
		a.shell.Shutdown()
		drainCtx, cancel := context.WithTimeout(context.Background(), a.drainTimeout)
		if err := a.shell.Drain(drainCtx); err != nil {
			a.logger.Warn(drainCtx, "uploads still running at exit; pending ones sync next time", "error", err.Error())
		}
		cancel()
	}
	if a.disp != nil {
		a.disp.Stop()
	}
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		if err := a.closeFns[i](); err != nil {
			a.logger.Warn(context.Background(), "close", "error", err.Error())
		}
	}
	a.closeFns = nil
}

func (a *App) cameraOpen() bool { return a.shell.Screen() != nil }

func (a *App) getStatus() string {
	if a.cameraOpen() {
		return "(camera)"
	}
	return "(gallery)"
}

func (a *App) Gallery(ctx context.Context) error {
	return a.shell.LoadGallery(ctx)
}

func (a *App) OpenCamera(ctx context.Context) error {
	sc, err := a.shell.OpenCamera(ctx)
	if err != nil {
		return err
	}
	info := sc.Session().Info()
	printlnFn(fmt.Sprintf("Camera %s (%s) ready. Type 'capture' to take a photo, 'done' to go back.", info.ID, info.Facing))
	return nil
}

func (a *App) Capture(ctx context.Context) error {
	sc := a.shell.Screen()
	if sc == nil {
		return app.ErrCameraClosed
	}
	res, err := sc.Capture(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Saved %s (%d bytes), uploading as %s", res.Ref.Name(), len(res.Image.Bytes), res.Transfer.Job.Key()))
	return nil
}

func (a *App) Done(ctx context.Context) error {
	added, err := a.shell.CloseCamera(ctx)
	if len(added) > 0 {
		printlnFn(fmt.Sprintf("%d new photo(s)", len(added)))
	}
	return err
}

func (a *App) Select(ctx context.Context, i int) error {
	ref, err := a.shell.SelectPhoto(i)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%s  taken %s", ref.Path, ref.TakenAt.Format(time.DateTime)))
	return nil
}

func (a *App) UploadAll(ctx context.Context) error {
	ts, err := a.shell.UploadAll(ctx)
	if err != nil {
		return err
	}
	if len(ts) == 0 {
		printlnFn("Nothing to upload")
		return nil
	}
	n, err := app.WaitAll(ctx, ts)
	printlnFn(fmt.Sprintf("Uploaded %d of %d", n, len(ts)))
	return err
}

func (a *App) Sync(ctx context.Context) error {
	n, err := a.shell.SyncPending(ctx)
	if errors.Is(err, app.ErrNoIndex) {
		return err
	}
	printlnFn(fmt.Sprintf("Synced %d photo(s)", n))
	return err
}

func (a *App) Grant(ctx context.Context, capability string, granted bool) error {
	if err := a.grants.Set(capability, granted); err != nil {
		return err
	}
	verb := "revoked"
	if granted {
		verb = "granted"
	}
	a.logger.Info(ctx, "permission changed", "capability", capability, "granted", granted)
	printlnFn(fmt.Sprintf("%s access %s", capability, verb))
	return nil
}

func (a *App) Status(ctx context.Context) error {
	printlnFn(fmt.Sprintf("camera permission: %t, storage permission: %t", a.grants.CameraGranted(), a.grants.StorageGranted()))
	if sc := a.shell.Screen(); sc != nil {
		s := sc.Session()
		printlnFn(fmt.Sprintf("camera %s: %s, preview frames: %d", s.Info().ID, s.State(), a.preview.Frames()))
	}
	if a.sched.Enabled() {
		runs, skipped, lastErr := a.sched.Stats()
		line := fmt.Sprintf("sync schedule %q: next %s, runs %d, skipped %d", a.config.SyncSchedule,
			a.sched.Next().Format(time.DateTime), runs, skipped)
		if lastErr != nil {
			line += ", last error: " + lastErr.Error()
		}
		printlnFn(line)
	}
	printlnFn(fmt.Sprintf("photos shown: %d, up %s", len(a.shell.Images()), time.Since(a.startedAt).Round(time.Second)))
	return nil
}
