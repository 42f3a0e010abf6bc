// 指示: miu200521358
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/miu200521358/mu_vrm_ik/pkg/adapter/io_model/vrm"
	"github.com/miu200521358/mu_vrm_ik/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_vrm_ik/pkg/adapter/pose_source"
	"github.com/miu200521358/mu_vrm_ik/pkg/infra/controller/ui"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/config"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_vrm_ik/pkg/usecase/minteractor"
	"github.com/miu200521358/mu_vrm_ik/pkg/usecase/port/moutput"
	"golang.org/x/text/message"
)

const defaultHeadlessFrames = 240

// options はCLI引数を保持する。
type options struct {
	modelPath string
	headless  bool
	frames    int
	source    config.PoseSourceKind
}

// main はアバタービューアを起動する。
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run はCLI処理全体を実行する。
func run(args []string, out io.Writer, errOut io.Writer) error {
	cfg, err := config.LoadAppConfig()
	if err != nil {
		return err
	}
	opts, err := parseOptions(args, errOut, cfg)
	if err != nil {
		return err
	}
	cfg.ModelPath = opts.modelPath
	cfg.PoseSource = opts.source

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.SetDefaultLogger(logging.NewLogger(errOut, level))
	printer := messages.NewPrinter(cfg.Lang)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source := newPoseSource(cfg)
	usecase := minteractor.NewAvatarUsecase(minteractor.AvatarUsecaseDeps{
		RigReader:  vrm.NewVrmRepository(),
		PoseSource: source,
	})
	frame := minteractor.NewFrameContext(float64(cfg.WindowWidth) / float64(cfg.WindowHeight))

	if err := usecase.LoadAndAttach(ctx, frame, cfg.ModelPath); err != nil {
		if opts.headless {
			return fmt.Errorf("%s: %w", messages.Translate(printer, messages.MessageLoadFailed), err)
		}
		logging.DefaultLogger().Warn("%s", messages.Translate(printer, messages.MessageModelRequired))
	} else {
		logging.DefaultLogger().Info("%s", messages.Translate(printer, messages.LogLoadSuccess, filepath.Base(cfg.ModelPath)))
	}

	if opts.headless {
		return runHeadless(ctx, usecase, frame, opts.frames, cfg.PoseInterval, printer, out)
	}

	stop, err := usecase.StartPoseFeed(ctx, frame)
	if err != nil {
		logging.DefaultLogger().Error("%s: %v", messages.Translate(printer, messages.MessagePoseSourceFailed), err)
	} else {
		defer stop()
		logging.DefaultLogger().Info("%s", messages.Translate(printer, messages.LogPoseSourceReady, cfg.PoseSource))
	}
	return ui.RunWindow(ui.NewViewer(ctx, frame, printer, cfg.WindowWidth, cfg.WindowHeight))
}

// parseOptions はCLI引数を解析する。未指定の値は環境変数設定を使う。
func parseOptions(args []string, errOut io.Writer, cfg config.AppConfig) (options, error) {
	fs := flag.NewFlagSet("mu_vrm_ik", flag.ContinueOnError)
	fs.SetOutput(errOut)

	model := fs.String("model", "", "VRMファイルパス")
	headless := fs.Bool("headless", false, "ウィンドウを開かずに指定フレーム数だけ実行する")
	frames := fs.Int("frames", defaultHeadlessFrames, "ヘッドレス実行のフレーム数")
	source := fs.String("source", "", "ポーズ供給元 (mock|mqtt)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if *model == "" && fs.NArg() > 0 {
		*model = fs.Arg(0)
	}
	if *model == "" {
		*model = cfg.ModelPath
	}
	if strings.TrimSpace(*model) == "" {
		return options{}, fmt.Errorf("VRMファイルを指定してください (-model)")
	}
	if !strings.EqualFold(filepath.Ext(*model), ".vrm") {
		return options{}, fmt.Errorf("入力拡張子が .vrm ではありません: %s", *model)
	}

	kind := cfg.PoseSource
	if *source != "" {
		kind = config.PoseSourceKind(strings.ToLower(strings.TrimSpace(*source)))
	}
	switch kind {
	case config.PoseSourceMock, config.PoseSourceMqtt:
	default:
		return options{}, fmt.Errorf("ポーズ供給元が不正です: %s", kind)
	}
	if *frames <= 0 {
		return options{}, fmt.Errorf("フレーム数は正の値を指定してください: %d", *frames)
	}

	return options{modelPath: *model, headless: *headless, frames: *frames, source: kind}, nil
}

// newPoseSource は設定に応じたポーズ供給元を生成する。
func newPoseSource(cfg config.AppConfig) moutput.IPoseSource {
	if cfg.PoseSource == config.PoseSourceMqtt {
		return pose_source.NewMqttPoseSource(pose_source.MqttPoseSourceOptions{
			Broker:   cfg.MqttBroker,
			Topic:    cfg.MqttTopic,
			ClientID: cfg.MqttClientID,
		})
	}
	return pose_source.NewMockPoseSource(cfg.PoseInterval)
}

// runHeadless は固定刻みでフレームを進め、毎フレームの手の姿勢を出力する。
// モック供給元は実時間ではなくフレーム時間で切り替える。
func runHeadless(
	ctx context.Context,
	usecase *minteractor.AvatarUsecase,
	frame *minteractor.FrameContext,
	frames int,
	interval time.Duration,
	printer *message.Printer,
	out io.Writer,
) error {
	const delta = 1.0 / 60.0

	mock, isMock := usecase.PoseSource().(*pose_source.MockPoseSource)
	if isMock {
		unsubscribe := mock.Subscribe(frame.ReceivePose)
		defer unsubscribe()
	} else {
		stop, err := usecase.StartPoseFeed(ctx, frame)
		if err != nil {
			return err
		}
		defer stop()
	}

	elapsed := 0.0
	for i := 0; i < frames; i++ {
		if isMock {
			elapsed += delta
			if elapsed >= interval.Seconds() {
				elapsed -= interval.Seconds()
				mock.Tick()
			}
		}
		if err := frame.Step(ctx, delta); err != nil {
			return err
		}
		for _, transform := range frame.HandTransforms() {
			fmt.Fprintln(out, messages.Translate(printer, messages.LogHeadlessFrame,
				i, transform.BoneName, transform.Position, transform.Rotation))
		}
	}
	fmt.Fprintln(out, messages.Translate(printer, messages.LogHeadlessDone, frames))
	return nil
}
