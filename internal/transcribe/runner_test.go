package transcribe_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"vttscribe/internal/discovery"
	"vttscribe/internal/engine"
	"vttscribe/internal/engine/stream"
	"vttscribe/internal/lockfile"
	"vttscribe/internal/logging"
	"vttscribe/internal/testsupport"
	"vttscribe/internal/transcribe"
	"vttscribe/internal/vtt"
)

// fakeEngine writes the given cues and reports progress, or runs fn instead.
type fakeEngine struct {
	fn    func(ctx context.Context, req engine.Request, progress engine.ProgressFunc) (engine.Result, error)
	calls []engine.Request
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Transcribe(ctx context.Context, req engine.Request, progress engine.ProgressFunc) (engine.Result, error) {
	f.calls = append(f.calls, req)
	return f.fn(ctx, req, progress)
}

func writeCues(cues ...vtt.Cue) func(context.Context, engine.Request, engine.ProgressFunc) (engine.Result, error) {
	return func(_ context.Context, req engine.Request, progress engine.ProgressFunc) (engine.Result, error) {
		if err := vtt.WriteFile(req.Dest, cues); err != nil {
			return engine.Result{}, err
		}
		progress(50)
		return engine.Result{Cues: len(cues)}, nil
	}
}

func candidates(dir string, names ...string) []discovery.Candidate {
	out := make([]discovery.Candidate, 0, len(names))
	for _, name := range names {
		out = append(out, discovery.Candidate{Path: filepath.Join(dir, name)})
	}
	return out
}

func percents(t *testing.T, buf *bytes.Buffer) []int {
	t.Helper()
	var out []int
	for _, line := range strings.Fields(buf.String()) {
		value, err := strconv.Atoi(line)
		if err != nil {
			t.Fatalf("progress line %q is not an integer", line)
		}
		out = append(out, value)
	}
	return out
}

func assertNoMarkers(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*"+lockfile.DefaultExtension))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) > 0 {
		t.Fatalf("lock markers left behind: %v", matches)
	}
}

func TestRunHelloScenario(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "hello.mp4")
	exec := &testsupport.StubExecutor{Stdout: []string{
		`{"type":"info","duration":2.0,"language":"en"}`,
		`{"type":"segment","start":0.0,"end":2.0,"text":"Hello"}`,
	}}
	var progress bytes.Buffer
	runner := transcribe.NewRunner(
		stream.New("python3", stream.WithExecutor(exec)),
		lockfile.NewManager(""),
		transcribe.Options{RunID: "run-1"},
		transcribe.WithProgress(&progress),
	)

	summary, err := runner.Run(context.Background(), candidates(dir, "hello.mp4"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Completed != 1 || summary.Total() != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	data, err := os.ReadFile(filepath.Join(dir, "hello.vtt"))
	if err != nil {
		t.Fatalf("read vtt: %v", err)
	}
	if want := "WEBVTT\n\n\n00:00:00.000 --> 00:00:02.000\nHello\n"; string(data) != want {
		t.Fatalf("unexpected vtt %q", data)
	}
	got := percents(t, &progress)
	if len(got) == 0 || got[len(got)-1] != 100 {
		t.Fatalf("expected trailing 100, got %v", got)
	}
	assertNoMarkers(t, dir)
}

func TestRunPercentSequenceIsMonotonic(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "a.mp3")
	exec := &testsupport.StubExecutor{Stdout: []string{
		`{"type":"info","duration":8}`,
		`{"type":"segment","start":0,"end":1,"text":"one"}`,
		`{"type":"segment","start":1,"end":3,"text":"two"}`,
		`{"type":"segment","start":3,"end":3,"text":"three"}`,
		`{"type":"segment","start":3,"end":9,"text":"four"}`,
	}}
	var progress bytes.Buffer
	runner := transcribe.NewRunner(stream.New("python3", stream.WithExecutor(exec)), lockfile.NewManager(""), transcribe.Options{}, transcribe.WithProgress(&progress))
	if _, err := runner.Run(context.Background(), candidates(dir, "a.mp3")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := percents(t, &progress)
	want := []int{12, 37, 37, 100, 100}
	if !slices.Equal(got, want) {
		t.Fatalf("percents = %v, want %v", got, want)
	}
}

func TestRunSamplesProgressLogs(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "a.mp4")
	eng := &fakeEngine{fn: func(_ context.Context, req engine.Request, progress engine.ProgressFunc) (engine.Result, error) {
		for _, percent := range []int{5, 12, 15, 37, 50} {
			progress(percent)
		}
		return engine.Result{}, vtt.WriteFile(req.Dest, nil)
	}}
	var logs, progress bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Writer: &logs})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	runner := transcribe.NewRunner(eng, lockfile.NewManager(""), transcribe.Options{},
		transcribe.WithProgress(&progress),
		transcribe.WithLogger(logger),
	)
	if _, err := runner.Run(context.Background(), candidates(dir, "a.mp4")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := percents(t, &progress); !slices.Equal(got, []int{5, 12, 15, 37, 50, 100}) {
		t.Fatalf("every percent must reach stdout, got %v", got)
	}
	var logged []string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "Transcription progress") {
			logged = append(logged, line)
		}
	}
	if len(logged) != 5 {
		t.Fatalf("expected one progress record per 10%% bucket, got %d:\n%s", len(logged), logs.String())
	}
	for _, percent := range []string{"percent=5", "percent=12", "percent=37", "percent=50", "percent=100"} {
		if !strings.Contains(logs.String(), percent) {
			t.Fatalf("missing %s in logs:\n%s", percent, logs.String())
		}
	}
	if strings.Contains(logs.String(), "percent=15") {
		t.Fatalf("15%% shares a bucket with 12%% and should be sampled out:\n%s", logs.String())
	}
}

func TestRunFailureRemovesPartialOutputAndContinues(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "bad.mp4", "good.mp4")
	eng := &fakeEngine{}
	good := writeCues(vtt.Cue{Start: 0, End: 1, Text: "fine"})
	eng.fn = func(ctx context.Context, req engine.Request, progress engine.ProgressFunc) (engine.Result, error) {
		if strings.HasSuffix(req.Source, "bad.mp4") {
			if err := os.WriteFile(req.Dest, []byte("WEBVTT\n\n"), 0o644); err != nil {
				return engine.Result{}, err
			}
			return engine.Result{}, errors.New("model exploded")
		}
		return good(ctx, req, progress)
	}
	var progress bytes.Buffer
	runner := transcribe.NewRunner(eng, lockfile.NewManager(""), transcribe.Options{}, transcribe.WithProgress(&progress))

	summary, err := runner.Run(context.Background(), candidates(dir, "bad.mp4", "good.mp4"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if testsupport.Exists(t, filepath.Join(dir, "bad.vtt")) {
		t.Fatal("partial output of failed file must be removed")
	}
	if !testsupport.Exists(t, filepath.Join(dir, "good.vtt")) {
		t.Fatal("expected output for good file")
	}
	if got := percents(t, &progress); !slices.Equal(got, []int{100, 50, 100}) {
		t.Fatalf("unexpected progress %v", got)
	}
	assertNoMarkers(t, dir)
}

func TestRunInterruptionStopsRun(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "first.mkv", "second.mkv")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := &fakeEngine{}
	eng.fn = func(ctx context.Context, req engine.Request, progress engine.ProgressFunc) (engine.Result, error) {
		if err := os.WriteFile(req.Dest, []byte("WEBVTT\n\n\n00:00:00.000 --> 00:00:01.000\nhalf\n"), 0o644); err != nil {
			return engine.Result{}, err
		}
		progress(10)
		cancel()
		return engine.Result{}, ctx.Err()
	}
	var progress bytes.Buffer
	runner := transcribe.NewRunner(eng, lockfile.NewManager(""), transcribe.Options{}, transcribe.WithProgress(&progress))

	summary, err := runner.Run(ctx, candidates(dir, "first.mkv", "second.mkv"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Interrupted != 1 || summary.Total() != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(eng.calls) != 1 {
		t.Fatalf("expected run to stop after interruption, engine called %d times", len(eng.calls))
	}
	if testsupport.Exists(t, filepath.Join(dir, "first.vtt")) {
		t.Fatal("partial output of interrupted file must be removed")
	}
	if got := percents(t, &progress); !slices.Equal(got, []int{10, 100}) {
		t.Fatalf("unexpected progress %v", got)
	}
	assertNoMarkers(t, dir)
}

func TestRunSkipsLockedFiles(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "busy.mp4", "busy.lock")
	eng := &fakeEngine{fn: writeCues()}
	var progress bytes.Buffer
	runner := transcribe.NewRunner(eng, lockfile.NewManager(""), transcribe.Options{}, transcribe.WithProgress(&progress))

	summary, err := runner.Run(context.Background(), candidates(dir, "busy.mp4"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 || len(eng.calls) != 0 {
		t.Fatalf("expected skip, summary %+v calls %d", summary, len(eng.calls))
	}
	if progress.Len() != 0 {
		t.Fatalf("skipped files must not print progress, got %q", progress.String())
	}
	if !testsupport.Exists(t, filepath.Join(dir, "busy.lock")) {
		t.Fatal("foreign marker must be left alone")
	}
}

func TestRunAbortsOnLockFilesystemError(t *testing.T) {
	dir := t.TempDir()
	eng := &fakeEngine{fn: writeCues()}
	runner := transcribe.NewRunner(eng, lockfile.NewManager(""), transcribe.Options{}, transcribe.WithProgress(&bytes.Buffer{}))

	_, err := runner.Run(context.Background(), candidates(dir, filepath.Join("missing", "clip.mp4")))
	if err == nil {
		t.Fatal("expected lock creation failure to abort the run")
	}
	if errors.Is(err, lockfile.ErrLocked) {
		t.Fatalf("unexpected ErrLocked: %v", err)
	}
	if len(eng.calls) != 0 {
		t.Fatal("engine must not run without a lock")
	}
}

func TestRunPassesOptionsToEngine(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "x.webm")
	eng := &fakeEngine{fn: writeCues()}
	opts := transcribe.Options{Language: "de", ComputeType: "int8", Model: "small", Device: "cpu", ModelDir: "/m"}
	runner := transcribe.NewRunner(eng, lockfile.NewManager(""), opts, transcribe.WithProgress(&bytes.Buffer{}))
	if _, err := runner.Run(context.Background(), candidates(dir, "x.webm")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := engine.Request{
		Source: filepath.Join(dir, "x.webm"), Dest: filepath.Join(dir, "x.vtt"),
		Language: "de", ComputeType: "int8", Model: "small", Device: "cpu", ModelDir: "/m",
	}
	if eng.calls[0] != want {
		t.Fatalf("request = %+v, want %+v", eng.calls[0], want)
	}
}

func TestRunTimeoutCountsAsFailure(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "slow.mp4", "next.mp4")
	eng := &fakeEngine{}
	eng.fn = func(ctx context.Context, req engine.Request, _ engine.ProgressFunc) (engine.Result, error) {
		if strings.HasSuffix(req.Source, "slow.mp4") {
			<-ctx.Done()
			return engine.Result{}, ctx.Err()
		}
		return engine.Result{}, vtt.WriteFile(req.Dest, nil)
	}
	runner := transcribe.NewRunner(eng, lockfile.NewManager(""), transcribe.Options{Timeout: 10 * time.Millisecond}, transcribe.WithProgress(&bytes.Buffer{}))
	summary, err := runner.Run(context.Background(), candidates(dir, "slow.mp4", "next.mp4"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	assertNoMarkers(t, dir)
}

type staticProber float64

func (p staticProber) Duration(context.Context, string) (float64, error) {
	return float64(p), nil
}

func TestRunTidiesOutput(t *testing.T) {
	dir := t.TempDir()
	testsupport.Touch(t, dir, "talk.mp4")
	eng := &fakeEngine{fn: writeCues(
		vtt.Cue{Start: 0, End: 1, Text: "so we"},
		vtt.Cue{Start: 1, End: 2, Text: "begin."},
		vtt.Cue{Start: 2, End: 12, Text: "The end."},
	)}
	runner := transcribe.NewRunner(eng, lockfile.NewManager(""), transcribe.Options{Tidy: true},
		transcribe.WithProgress(&bytes.Buffer{}),
		transcribe.WithProber(staticProber(10)),
	)
	if _, err := runner.Run(context.Background(), candidates(dir, "talk.mp4")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	cues, err := vtt.ParseFile(filepath.Join(dir, "talk.vtt"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cues) != 2 || cues[0].Text != "so we begin." {
		t.Fatalf("unexpected tidied cues %+v", cues)
	}
	if math.Abs(cues[1].End-9.7) > 1e-9 {
		t.Fatalf("expected last cue clamped to 9.7, got %v", cues[1].End)
	}
}

func TestSummaryAdd(t *testing.T) {
	total := transcribe.Summary{Completed: 1}
	total.Add(transcribe.Summary{Failed: 2, Skipped: 3, Interrupted: 1})
	if total.Total() != 7 {
		t.Fatalf("unexpected total %+v", total)
	}
}
