package pipeline_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/pipeline"
)

// canonicalRegistry builds the three-stage pipeline with stub processors.
// The transcription processor can be overridden per test.
func canonicalRegistry(t *testing.T, transcribe func(ctx context.Context, input any, artifacts *pipeline.State) (any, error)) *pipeline.Registry {
	t.Helper()
	if transcribe == nil {
		transcribe = func(ctx context.Context, input any, artifacts *pipeline.State) (any, error) {
			return "transcript", nil
		}
	}

	r := pipeline.NewRegistry()
	stages := []*pipeline.Stage{
		pipeline.NewStage(pipeline.StageConfig[any, any]{
			Name:     "filePreparation",
			Requires: []string{"originalFile"},
			Produces: "mp3Audio",
			Process: func(ctx context.Context, input any, artifacts *pipeline.State) (any, error) {
				return "audio", nil
			},
		}),
		pipeline.NewStage(pipeline.StageConfig[any, any]{
			Name:     "transcription",
			Requires: []string{"mp3Audio"},
			Produces: "transcription",
			Process:  transcribe,
		}),
		pipeline.NewStage(pipeline.StageConfig[any, any]{
			Name:     "translation",
			Requires: []string{"transcription"},
			Produces: "translation",
			Process: func(ctx context.Context, input any, artifacts *pipeline.State) (any, error) {
				return "translated", nil
			},
		}),
	}
	for _, s := range stages {
		if err := r.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.Name(), err)
		}
	}
	return r
}

func newTestEngine(t *testing.T, transcribe func(ctx context.Context, input any, artifacts *pipeline.State) (any, error)) *pipeline.Engine {
	t.Helper()
	e, err := pipeline.NewEngine(canonicalRegistry(t, transcribe), nil, "originalFile")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func statusOf(t *testing.T, e *pipeline.Engine, name string) pipeline.StageStatus {
	t.Helper()
	st, err := e.StageStatusByName(name)
	if err != nil {
		t.Fatalf("status %s: %v", name, err)
	}
	return st
}

func TestEngineInitialStatuses(t *testing.T) {
	e := newTestEngine(t, nil)

	// All three stages have requirements, so all start Idle.
	for _, name := range []string{"filePreparation", "transcription", "translation"} {
		if st := statusOf(t, e, name); st.Status != pipeline.StatusIdle {
			t.Fatalf("%s: expected idle, got %s", name, st.Status)
		}
	}

	// A stage without requirements starts Ready.
	r := pipeline.NewRegistry()
	_ = r.Register(echoStage("standalone", nil, "out", 1))
	e2, err := pipeline.NewEngine(r, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if st := statusOf(t, e2, "standalone"); st.Status != pipeline.StatusReady {
		t.Fatalf("expected ready, got %s", st.Status)
	}
}

func TestEngineUnknownStage(t *testing.T) {
	e := newTestEngine(t, nil)
	err := e.RunStage(context.Background(), "nonsense", nil)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestEngineMissingRequirements(t *testing.T) {
	e := newTestEngine(t, nil)

	err := e.RunStage(context.Background(), "transcription", nil)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeMissingRequirements {
		t.Fatalf("expected MISSING_REQUIREMENTS, got %v", err)
	}
	missing, ok := appErr.Details["missing"].([]string)
	if !ok || len(missing) != 1 || missing[0] != "mp3Audio" {
		t.Fatalf("expected missing [mp3Audio], got %v", appErr.Details["missing"])
	}

	// Stage state unchanged by the rejection.
	if st := statusOf(t, e, "transcription"); st.Status != pipeline.StatusIdle {
		t.Fatalf("rejected run must not change status, got %s", st.Status)
	}
}

func TestEngineRunAndCascade(t *testing.T) {
	e := newTestEngine(t, nil)

	e.PutArtifact("mp3Audio", "audio-x")
	if st := statusOf(t, e, "transcription"); st.Status != pipeline.StatusReady {
		t.Fatalf("transcription should be ready, got %s", st.Status)
	}
	if st := statusOf(t, e, "translation"); st.Status != pipeline.StatusIdle {
		t.Fatalf("translation should stay idle, got %s", st.Status)
	}

	if err := e.RunStage(context.Background(), "transcription", nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	v, ok := e.Artifacts().Get("transcription")
	if !ok || v != "transcript" {
		t.Fatalf("expected transcription artifact, got %v (ok=%v)", v, ok)
	}
	if audio, _ := e.Artifacts().Get("mp3Audio"); audio != "audio-x" {
		t.Fatalf("existing artifact must be untouched, got %v", audio)
	}
	if st := statusOf(t, e, "transcription"); st.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %s", st.Status)
	}
	if st := statusOf(t, e, "translation"); st.Status != pipeline.StatusReady {
		t.Fatalf("translation should be promoted to ready, got %s", st.Status)
	}
}

func TestEngineFailureLeavesStateUntouched(t *testing.T) {
	e := newTestEngine(t, func(ctx context.Context, input any, artifacts *pipeline.State) (any, error) {
		return nil, fmt.Errorf("service exploded")
	})
	e.PutArtifact("mp3Audio", "audio")

	err := e.RunStage(context.Background(), "transcription", nil)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeProcessorFailure {
		t.Fatalf("expected PROCESSOR_FAILURE, got %v", err)
	}

	if e.Artifacts().Has("transcription") {
		t.Fatal("failed run must not write the artifact")
	}
	st := statusOf(t, e, "transcription")
	if st.Status != pipeline.StatusFailed {
		t.Fatalf("expected failed, got %s", st.Status)
	}
	if st.Error == "" {
		t.Fatal("failure reason should be recorded on the stage")
	}
	if st := statusOf(t, e, "translation"); st.Status != pipeline.StatusIdle {
		t.Fatalf("downstream stage must stay idle after failure, got %s", st.Status)
	}
}

func TestEngineRerunAfterFailureClearsError(t *testing.T) {
	var fail bool = true
	e := newTestEngine(t, func(ctx context.Context, input any, artifacts *pipeline.State) (any, error) {
		if fail {
			return nil, fmt.Errorf("transient")
		}
		return "transcript", nil
	})
	e.PutArtifact("mp3Audio", "audio")

	if err := e.RunStage(context.Background(), "transcription", nil); err == nil {
		t.Fatal("first run should fail")
	}

	fail = false
	if err := e.RunStage(context.Background(), "transcription", nil); err != nil {
		t.Fatalf("re-run: %v", err)
	}
	st := statusOf(t, e, "transcription")
	if st.Status != pipeline.StatusCompleted || st.Error != "" {
		t.Fatalf("re-run should complete and clear the error, got %s (%q)", st.Status, st.Error)
	}
}

func TestEngineRerunOverwritesArtifact(t *testing.T) {
	runs := 0
	e := newTestEngine(t, func(ctx context.Context, input any, artifacts *pipeline.State) (any, error) {
		runs++
		return fmt.Sprintf("transcript-%d", runs), nil
	})
	e.PutArtifact("mp3Audio", "audio")

	_ = e.RunStage(context.Background(), "transcription", nil)
	_ = e.RunStage(context.Background(), "transcription", nil)

	v, _ := e.Artifacts().Get("transcription")
	if v != "transcript-2" {
		t.Fatalf("re-run should overwrite wholesale, got %v", v)
	}
}

func TestEngineConcurrentDuplicateRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	e := newTestEngine(t, func(ctx context.Context, input any, artifacts *pipeline.State) (any, error) {
		close(started)
		<-release
		return "transcript", nil
	})
	e.PutArtifact("mp3Audio", "audio")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := e.RunStage(context.Background(), "transcription", nil); err != nil {
			t.Errorf("first run: %v", err)
		}
	}()

	<-started
	err := e.RunStage(context.Background(), "transcription", nil)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeStageConflict {
		t.Fatalf("expected STAGE_CONFLICT while processing, got %v", err)
	}

	close(release)
	wg.Wait()
}

type prepInput struct{ Path string }

func TestEngineWrongInputType(t *testing.T) {
	r := pipeline.NewRegistry()
	_ = r.Register(pipeline.NewStage(pipeline.StageConfig[prepInput, string]{
		Name:     "filePreparation",
		Produces: "mp3Audio",
		Process: func(ctx context.Context, input prepInput, artifacts *pipeline.State) (string, error) {
			return "audio:" + input.Path, nil
		},
	}))
	e, err := pipeline.NewEngine(r, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	err = e.RunStage(context.Background(), "filePreparation", 42)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if st := statusOf(t, e, "filePreparation"); st.Status != pipeline.StatusReady {
		t.Fatalf("rejected input must not change status, got %s", st.Status)
	}

	if err := e.RunStage(context.Background(), "filePreparation", prepInput{Path: "a.mov"}); err != nil {
		t.Fatalf("typed run: %v", err)
	}
	v, _ := e.Artifacts().Get("mp3Audio")
	if v != "audio:a.mov" {
		t.Fatalf("unexpected artifact %v", v)
	}
}

func TestEngineEventsInCommitOrder(t *testing.T) {
	e := newTestEngine(t, nil)

	var mu sync.Mutex
	var events []pipeline.StageEvent
	e.Subscribe(func(ev pipeline.StageEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	e.PutArtifact("mp3Audio", "audio")
	if err := e.RunStage(context.Background(), "transcription", nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	want := []struct {
		stage  string
		status pipeline.Status
	}{
		{"transcription", pipeline.StatusReady},      // promoted by PutArtifact
		{"transcription", pipeline.StatusProcessing}, // run begins
		{"transcription", pipeline.StatusCompleted},  // commit
		{"translation", pipeline.StatusReady},        // cascade in same commit
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, w := range want {
		if events[i].Stage != w.stage || events[i].Status != w.status {
			t.Fatalf("event %d: expected %s/%s, got %s/%s",
				i, w.stage, w.status, events[i].Stage, events[i].Status)
		}
	}
	if events[2].Artifact != "transcription" {
		t.Fatalf("completed event should name the artifact, got %q", events[2].Artifact)
	}
}

func TestEngineReleasesSupersededArtifact(t *testing.T) {
	old := &fakeRelease{}
	e := newTestEngine(t, nil)
	e.PutArtifact("mp3Audio", old)
	e.PutArtifact("mp3Audio", "replacement")

	if old.released != 1 {
		t.Fatalf("superseded artifact should be released once, got %d", old.released)
	}
}

func TestComputeReadinessPure(t *testing.T) {
	descriptors := []pipeline.Descriptor{
		{Name: "filePreparation", Requires: []string{"originalFile"}, Produces: "mp3Audio"},
		{Name: "transcription", Requires: []string{"mp3Audio"}, Produces: "transcription"},
		{Name: "translation", Requires: []string{"transcription"}, Produces: "translation"},
	}
	present := map[string]bool{"mp3Audio": true}
	has := func(key string) bool { return present[key] }

	current := map[string]pipeline.Status{
		"filePreparation": pipeline.StatusCompleted,
		"transcription":   pipeline.StatusIdle,
		"translation":     pipeline.StatusIdle,
	}

	next := pipeline.ComputeReadiness(descriptors, has, current)
	if next["filePreparation"] != pipeline.StatusCompleted {
		t.Fatalf("terminal status must be preserved, got %s", next["filePreparation"])
	}
	if next["transcription"] != pipeline.StatusReady {
		t.Fatalf("satisfied stage should be ready, got %s", next["transcription"])
	}
	if next["translation"] != pipeline.StatusIdle {
		t.Fatalf("unsatisfied stage should stay idle, got %s", next["translation"])
	}

	// Processing and Failed are also preserved.
	current["transcription"] = pipeline.StatusProcessing
	current["translation"] = pipeline.StatusFailed
	next = pipeline.ComputeReadiness(descriptors, has, current)
	if next["transcription"] != pipeline.StatusProcessing || next["translation"] != pipeline.StatusFailed {
		t.Fatalf("processing/failed must be preserved, got %s/%s",
			next["transcription"], next["translation"])
	}
}

func TestEngineStageStatusesSnapshot(t *testing.T) {
	e := newTestEngine(t, nil)
	statuses := e.StageStatuses()
	if len(statuses) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(statuses))
	}
	if statuses[0].Name != "filePreparation" || statuses[0].Produces != "mp3Audio" {
		t.Fatalf("unexpected first snapshot: %+v", statuses[0])
	}
	if len(statuses[1].Missing) != 1 || statuses[1].Missing[0] != "mp3Audio" {
		t.Fatalf("transcription should report missing mp3Audio, got %v", statuses[1].Missing)
	}

	e.PutArtifact("mp3Audio", "audio")
	statuses = e.StageStatuses()
	if statuses[1].Status != pipeline.StatusReady || len(statuses[1].Missing) != 0 {
		t.Fatalf("transcription should be ready with nothing missing: %+v", statuses[1])
	}
}
