package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"notion-blog-sync/images"
	"notion-blog-sync/models"
	"notion-blog-sync/notion"
	"notion-blog-sync/post"
	"notion-blog-sync/render"
	"notion-blog-sync/store"
	"notion-blog-sync/syncer"
	"notion-blog-sync/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// ErrPagesFailed --fail-on-error 가 켜져 있고 실패한 페이지가 있을 때 반환됩니다
var ErrPagesFailed = errors.New("some pages failed to sync")

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// runOptions 플래그로 받은 실행 옵션
type runOptions struct {
	configPath      string
	databaseID      string
	contentDir      string
	imagesDir       string
	maxRedirects    int
	downloadTimeout time.Duration
	tui             bool
	verbose         bool
	quiet           bool
	failOnError     bool
	dryRun          bool
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "notion-sync",
		Short: "Notion 데이터베이스의 게시글을 정적 사이트용 마크다운으로 동기화합니다",
		Long: `notion-sync 는 Notion 데이터베이스에서 Status 가 Published 인 페이지를 가져와
front matter 가 붙은 마크다운 파일로 저장하고, 본문의 원격 이미지를 로컬로 내려받습니다.

NOTION_API_KEY 와 NOTION_DATABASE_ID 환경 변수(또는 .env, 설정 파일)가 필요합니다.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env 파일이 있으면 로드 (에러 무시)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit := cmd.Flags().Changed("config")
			return runSync(cmd.Context(), cmd, opts, explicit)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "설정 파일 경로 (YAML 또는 JSON)")
	f.StringVar(&opts.databaseID, "database", "", "Notion 데이터베이스 ID 또는 URL (NOTION_DATABASE_ID 보다 우선)")
	f.StringVar(&opts.contentDir, "content-dir", "", "마크다운 출력 디렉터리")
	f.StringVar(&opts.imagesDir, "images-dir", "", "이미지 출력 디렉터리")
	f.IntVar(&opts.maxRedirects, "max-redirects", -1, "이미지 다운로드 최대 리다이렉트 횟수")
	f.DurationVar(&opts.downloadTimeout, "download-timeout", 0, "이미지 다운로드 제한 시간 (0 이면 제한 없음)")
	f.BoolVar(&opts.tui, "tui", false, "진행 상황을 TUI 로 표시")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "디버그 로그 출력")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "경고 이상만 출력")
	f.BoolVar(&opts.failOnError, "fail-on-error", false, "실패한 페이지가 있으면 0 이 아닌 코드로 종료")
	f.BoolVar(&opts.dryRun, "dry-run", false, "마크다운 파일을 기록하지 않음")

	return cmd
}

func (o *runOptions) apply(cfg *Config) {
	if o.databaseID != "" {
		cfg.DatabaseID = o.databaseID
	}
	if o.contentDir != "" {
		cfg.ContentDir = o.contentDir
	}
	if o.imagesDir != "" {
		cfg.ImagesDir = o.imagesDir
	}
	if o.maxRedirects >= 0 {
		cfg.MaxRedirects = o.maxRedirects
	}
	if o.downloadTimeout > 0 {
		cfg.DownloadTimeout = o.downloadTimeout
	}
}

func runSync(ctx context.Context, cmd *cobra.Command, opts *runOptions, explicitConfig bool) error {
	cfg, err := LoadConfig(opts.configPath, explicitConfig, os.Getenv)
	if err != nil {
		return err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logOut := cmd.ErrOrStderr()
	if opts.tui {
		// TUI 가 화면을 그리는 동안에는 로그를 출력하지 않음
		logOut = io.Discard
	}
	logger := newLogger(logOut, opts.verbose, opts.quiet)
	slog.SetDefault(logger)

	loader := notion.NewLoader(cfg.NotionAPIKey, notion.WithRateLimit(cfg.RateLimit))
	localizer := images.NewLocalizer(cfg.ImagesDir,
		images.WithMaxRedirects(cfg.MaxRedirects),
		images.WithURLPrefix(cfg.ImagesURLPrefix),
		images.WithTimeout(cfg.DownloadTimeout),
	)
	renderer := render.NewRenderer(loader, localizer, logger)
	assembler := post.NewAssembler(renderer,
		post.WithStatusProperty(cfg.StatusProperty),
		post.WithPublishedValue(cfg.PublishedValue),
		post.WithLogger(logger),
	)

	if !store.Exists(cfg.ContentDir) {
		logger.Info("콘텐츠 디렉터리 생성", "path", cfg.ContentDir)
	}
	st, err := store.NewStore(cfg.ContentDir)
	if err != nil {
		return err
	}

	driverOpts := []syncer.Option{syncer.WithLogger(logger)}
	syncCfg := syncer.Config{
		DatabaseID:     cfg.DatabaseID,
		StatusProperty: cfg.StatusProperty,
		PublishedValue: cfg.PublishedValue,
		DryRun:         opts.dryRun,
	}

	var summary *models.Summary
	if opts.tui {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		progress := ui.NewProgress(cancel, tea.WithOutput(cmd.OutOrStdout()))
		driver := syncer.NewDriver(syncCfg, loader, assembler, st, append(driverOpts, syncer.WithObserver(progress))...)
		err = progress.Run(func() error {
			var err error
			summary, err = driver.Sync(ctx)
			return err
		})
	} else {
		driver := syncer.NewDriver(syncCfg, loader, assembler, st, driverOpts...)
		summary, err = driver.Sync(ctx)
	}
	if err != nil {
		return err
	}

	summary.ContentDir = st.Dir()
	summary.ImagesDir = localizer.Dir()
	if n, err := st.Count(ctx); err != nil {
		logger.Warn("게시글 개수 확인 실패", "path", st.Dir(), "error", err)
	} else {
		summary.Documents = n
	}

	if !opts.quiet {
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderSummary(summary))
	}

	if opts.failOnError && summary.Count(models.PageFailed) > 0 {
		return fmt.Errorf("%w: %d", ErrPagesFailed, summary.Count(models.PageFailed))
	}
	return nil
}

func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
