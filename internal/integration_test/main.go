// 指示: miu200521358
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/miu200521358/mu_vrm_ik/pkg/adapter/io_model/vrm"
	"github.com/miu200521358/mu_vrm_ik/pkg/adapter/pose_source"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/usecase/minteractor"
)

const (
	batchFrameDelta    = 1.0 / 60.0
	batchFramesPerPose = 30
)

var targetModelPaths = []string{
	// "E:/MMD_E/202101_vroid/Vrm/Hub2/Akami - 【朱巳】あかみ -アカミ【Akami】.vrm",
}

// batchConfig はバッチ検証の実行設定を表す。
type batchConfig struct {
	Cycles   int
	DryRun   bool
	FailFast bool
	Inputs   []string
}

// solveEntry は1モデル分の検証入力情報を表す。
type solveEntry struct {
	Index      int
	SourcePath string
	ModelName  string
}

// solveResult は1モデル分の検証結果を表す。
type solveResult struct {
	Entry    solveEntry
	Status   string
	Duration time.Duration
	Frames   int
	Err      error
	// MaxReach は手ボーンと目標マーカーの最大距離。
	MaxReach map[humanoid.HumanBoneName]float64
}

// main はVRMを一括読込し、モックポーズ巡回でIKとリターゲットを検証する。
func main() {
	os.Exit(run())
}

// run は実行設定を解決して一括検証を実行し、終了コードを返す。
func run() int {
	config, err := parseBatchConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定解析に失敗しました: %v\n", err)
		return 2
	}
	entries := buildSolveEntries(config.Inputs)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "検証対象モデルがありません")
		return 2
	}

	results := executeBatchSolve(config, entries)
	printBatchSummary(results)

	for _, result := range results {
		if result.Status == "failed" {
			return 1
		}
	}
	return 0
}

// parseBatchConfig はコマンドライン引数から実行設定を構築する。
func parseBatchConfig() (batchConfig, error) {
	cycles := flag.Int("cycles", 2, "モックポーズを巡回する回数")
	dryRun := flag.Bool("dry-run", false, "読込せず、入力解決のみ表示する")
	failFast := flag.Bool("fail-fast", false, "失敗時に即時終了する")
	flag.Parse()

	if *cycles <= 0 {
		return batchConfig{}, errors.New("cycles は正の値を指定してください")
	}
	inputs := append([]string{}, targetModelPaths...)
	inputs = append(inputs, flag.Args()...)
	return batchConfig{
		Cycles:   *cycles,
		DryRun:   *dryRun,
		FailFast: *failFast,
		Inputs:   inputs,
	}, nil
}

// buildSolveEntries は入力パス一覧から検証対象エントリを生成する。
func buildSolveEntries(inputPaths []string) []solveEntry {
	entries := make([]solveEntry, 0, len(inputPaths))
	for i, rawPath := range inputPaths {
		entries = append(entries, solveEntry{
			Index:      i + 1,
			SourcePath: normalizeInputPath(rawPath),
			ModelName:  resolveModelName(rawPath),
		})
	}
	return entries
}

// executeBatchSolve は全モデルの検証処理を順次実行する。
func executeBatchSolve(config batchConfig, entries []solveEntry) []solveResult {
	results := make([]solveResult, 0, len(entries))
	usecase := minteractor.NewAvatarUsecase(minteractor.AvatarUsecaseDeps{
		RigReader: vrm.NewVrmRepository(),
	})

	total := len(entries)
	for _, entry := range entries {
		fmt.Printf("[%d/%d] 検証開始: model=%s\n", entry.Index, total, entry.ModelName)
		result := solveModelEntry(usecase, config, entry)
		results = append(results, result)
		switch result.Status {
		case "succeeded":
			fmt.Printf("[%d/%d] 検証成功: model=%s frames=%d elapsed=%s reach=%s\n",
				entry.Index, total, entry.ModelName, result.Frames, result.Duration.Round(time.Millisecond), formatReach(result.MaxReach))
		case "dry_run":
			fmt.Printf("[%d/%d] DRY-RUN: model=%s input=%s\n", entry.Index, total, entry.ModelName, entry.SourcePath)
		case "skipped_missing":
			fmt.Printf("[%d/%d] 入力不足でスキップ: model=%s input=%s reason=%v\n", entry.Index, total, entry.ModelName, entry.SourcePath, result.Err)
		default:
			fmt.Printf("[%d/%d] 検証失敗: model=%s reason=%v\n", entry.Index, total, entry.ModelName, result.Err)
			if config.FailFast {
				return results
			}
		}
	}
	return results
}

// solveModelEntry は1モデル分の読込とフレーム実行を行う。
func solveModelEntry(usecase *minteractor.AvatarUsecase, config batchConfig, entry solveEntry) solveResult {
	result := solveResult{
		Entry:    entry,
		Status:   "failed",
		MaxReach: map[humanoid.HumanBoneName]float64{},
	}
	if _, err := os.Stat(entry.SourcePath); err != nil {
		result.Status = "skipped_missing"
		result.Err = err
		return result
	}
	if config.DryRun {
		result.Status = "dry_run"
		return result
	}

	ctx := context.Background()
	startedAt := time.Now()
	frame := minteractor.NewFrameContext(16.0 / 9.0)
	if err := usecase.LoadAndAttach(ctx, frame, entry.SourcePath); err != nil {
		result.Err = fmt.Errorf("モデル読込に失敗しました: %w", err)
		return result
	}
	if frame.IK == nil {
		result.Err = errors.New("ダミーチェーンを構築できませんでした")
		return result
	}

	source := pose_source.NewMockPoseSource(pose_source.DefaultPoseInterval)
	unsubscribe := source.Subscribe(frame.ReceivePose)
	defer unsubscribe()

	poseCount := len(source.Poses())
	for cycle := 0; cycle < config.Cycles*poseCount; cycle++ {
		source.Tick()
		for i := 0; i < batchFramesPerPose; i++ {
			if err := frame.Step(ctx, batchFrameDelta); err != nil {
				result.Err = fmt.Errorf("フレーム実行に失敗しました: %w", err)
				return result
			}
			result.Frames++
		}
		collectReach(frame, result.MaxReach)
	}

	result.Status = "succeeded"
	result.Duration = time.Since(startedAt)
	return result
}

// collectReach は各手ボーンと目標マーカーの距離の最大値を更新する。
func collectReach(frame *minteractor.FrameContext, maxReach map[humanoid.HumanBoneName]float64) {
	for _, side := range humanoid.Sides() {
		_, _, handName := humanoid.ArmBones(side)
		target := frame.Targets.Hand(side)
		for _, transform := range frame.HandTransforms() {
			if transform.BoneName != handName {
				continue
			}
			distance := transform.Position.Distance(target.WorldPosition())
			if distance > maxReach[handName] {
				maxReach[handName] = distance
			}
		}
	}
}

// formatReach は手ボーンごとの最大距離を表示用に整形する。
func formatReach(maxReach map[humanoid.HumanBoneName]float64) string {
	parts := make([]string, 0, len(maxReach))
	for _, side := range humanoid.Sides() {
		_, _, handName := humanoid.ArmBones(side)
		if distance, ok := maxReach[handName]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.4f", handName, distance))
		}
	}
	return strings.Join(parts, ",")
}

// printBatchSummary は検証結果の集計を標準出力へ表示する。
func printBatchSummary(results []solveResult) {
	succeeded := 0
	failed := 0
	skipped := 0
	dryRun := 0
	for _, result := range results {
		switch result.Status {
		case "succeeded":
			succeeded++
		case "dry_run":
			dryRun++
		case "skipped_missing":
			skipped++
		default:
			failed++
		}
	}
	fmt.Printf(
		"バッチ検証サマリ: total=%d succeeded=%d failed=%d skipped_missing=%d dry_run=%d\n",
		len(results),
		succeeded,
		failed,
		skipped,
		dryRun,
	)
}

// resolveModelName は入力パスから拡張子を除いたモデル名を返す。
func resolveModelName(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	ext := filepath.Ext(base)
	name := strings.TrimSpace(strings.TrimSuffix(base, ext))
	if name == "" {
		return "model"
	}
	return name
}

// normalizeInputPath は入力パスを実行環境向けに正規化する。
func normalizeInputPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return filepath.Clean(convertWindowsPathToWsl(path))
}

// convertWindowsPathToWsl は Linux 実行時に Windows パスを WSL パスへ変換する。
func convertWindowsPathToWsl(path string) string {
	trimmed := strings.TrimSpace(path)
	if runtime.GOOS != "linux" {
		return trimmed
	}
	if len(trimmed) < 2 || trimmed[1] != ':' {
		return trimmed
	}
	drive := strings.ToLower(trimmed[:1])
	rest := strings.ReplaceAll(trimmed[2:], "\\", "/")
	if rest == "" {
		return filepath.ToSlash(filepath.Join("/mnt", drive))
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return filepath.ToSlash(filepath.Join("/mnt", drive) + rest)
}
