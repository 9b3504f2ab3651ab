package ffmpeg

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestResults stores results from all tests for final summary
type TestResults struct {
	ExecutorPath  string
	ProbeResults  *VideoInfo
	DownsampleOK  bool
	FramesDecoded int
	FramesEncoded int
	ScenesFound   int
	Errors        []string
	TestDuration  time.Duration
}

var globalResults = &TestResults{
	Errors: make([]string, 0),
}

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

// makeTestClip generates a short synthetic clip and returns its path
func makeTestClip(t *testing.T, dir string, seconds, fps int) string {
	t.Helper()
	path := filepath.Join(dir, "test.mp4")
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", fmt.Sprintf("testsrc=duration=%d:size=320x240:rate=%d", seconds, fps),
		"-pix_fmt", "yuv420p", "-y", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test clip: %v", err)
	}
	return path
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	logger := zerolog.New(os.Stderr)
	e, err := New(logger, "", "", 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return e
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	e := newTestExecutor(t)
	if e.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if e.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}

	globalResults.ExecutorPath = e.ffmpegPath
	t.Logf("ffmpeg: %s", e.ffmpegPath)
	t.Logf("ffprobe: %s", e.ffprobePath)
}

func TestExecutorMissingBinary(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	if _, err := New(logger, "definitely-not-ffmpeg-9000", "", 0); err == nil {
		t.Error("expected error for a missing binary")
	}
}

func TestParseProbeOutput(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "10.000000", "bit_rate": "482000"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 320, "height": 240,
			 "r_frame_rate": "30/1", "nb_frames": "300"},
			{"codec_type": "audio", "codec_name": "aac", "bit_rate": "128000"}
		]
	}`)

	info, err := parseProbeOutput(raw, "clip.mp4")
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("dimensions = %dx%d", info.Width, info.Height)
	}
	if info.FPS != 30 {
		t.Errorf("fps = %v", info.FPS)
	}
	if info.FrameCount != 300 {
		t.Errorf("frame count = %d", info.FrameCount)
	}
	if info.Duration != 10*time.Second {
		t.Errorf("duration = %v", info.Duration)
	}
	if !info.HasAudio || info.AudioCodec != "aac" {
		t.Errorf("audio = %v %q", info.HasAudio, info.AudioCodec)
	}
}

func TestParseProbeOutputEstimatesFrameCount(t *testing.T) {
	// No nb_frames: fall back to duration * fps
	raw := []byte(`{
		"format": {"duration": "2.500000"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 320, "height": 240,
			 "r_frame_rate": "4/1"}
		]
	}`)

	info, err := parseProbeOutput(raw, "clip_4fps.mp4")
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}
	if info.FrameCount != 10 {
		t.Errorf("estimated frame count = %d, want 10", info.FrameCount)
	}
	if info.HasAudio {
		t.Error("phantom audio stream")
	}
}

func TestParseProbeOutputGarbage(t *testing.T) {
	if _, err := parseProbeOutput([]byte("nope"), "x.mp4"); err == nil {
		t.Error("garbage ffprobe output accepted")
	}
}

func TestDownsampleName(t *testing.T) {
	cases := []struct {
		input string
		fps   float64
		want  string
	}{
		{"/data/penalties.mp4", 4, "penalties_4fps.mp4"},
		{"/data/penalties.mp4", 12, "penalties_12fps.mp4"},
		{"session.mov", 30, "session_30fps.mov"},
		{"noext", 4, "noext_4fps.mp4"},
	}
	for _, tc := range cases {
		if got := downsampleName(tc.input, tc.fps); got != tc.want {
			t.Errorf("downsampleName(%q, %g) = %q, want %q", tc.input, tc.fps, got, tc.want)
		}
	}
}

func TestFilterBuilder(t *testing.T) {
	filter := NewFilterBuilder().Scale(1280, 720).Custom("showinfo").Build()
	expected := "scale=1280:720,showinfo"
	if filter != expected {
		t.Errorf("expected %q, got %q", expected, filter)
	}
}

func TestFilterBuilderEmpty(t *testing.T) {
	if filter := NewFilterBuilder().Build(); filter != "" {
		t.Errorf("expected empty string, got %q", filter)
	}
}

func TestFilterBuilderSkipsInvalidScale(t *testing.T) {
	filter := NewFilterBuilder().Scale(0, 720).Custom("null").Build()
	if filter != "null" {
		t.Errorf("expected %q, got %q", "null", filter)
	}
}

func TestParseSceneOutput(t *testing.T) {
	output := strings.Join([]string{
		"[Parsed_showinfo_1 @ 0x7f] n:   0 pts:  43008 pts_time:1.4336  pos: 12345 fmt:yuv420p",
		"[Parsed_showinfo_1 @ 0x7f] color_range:tv",
		"[Parsed_showinfo_1 @ 0x7f] n:   1 pts: 129024 pts_time:4.3008  pos: 99999 fmt:yuv420p",
		"frame=    2 fps=0.0 q=-0.0 size=N/A",
	}, "\n")

	scenes := parseSceneOutput(output)
	if len(scenes) != 2 {
		t.Fatalf("got %d scenes, want 2", len(scenes))
	}
	if scenes[0] != time.Duration(1.4336*float64(time.Second)) {
		t.Errorf("scene 0 = %v", scenes[0])
	}
	if scenes[1] != time.Duration(4.3008*float64(time.Second)) {
		t.Errorf("scene 1 = %v", scenes[1])
	}
}

func TestStreamOutputProgress(t *testing.T) {
	// A progress block as ffmpeg writes it to pipe:2
	raw := strings.Join([]string{
		"frame=120",
		"fps=29.97",
		"bitrate= 482.1kbits/s",
		"time=00:00:04.00",
		"speed=1.02x",
		"progress=continue",
		"frame=240",
		"fps=30.01",
		"bitrate= 480.0kbits/s",
		"time=00:00:08.00",
		"speed=1.01x",
		"progress=end",
	}, "\n")

	e := &Executor{logger: zerolog.Nop()}
	var got []Progress
	e.streamOutput(strings.NewReader(raw), func(p *Progress) {
		got = append(got, *p)
	}, nil)

	if len(got) != 2 {
		t.Fatalf("got %d progress reports, want 2", len(got))
	}
	if got[0].Frame != 120 || got[1].Frame != 240 {
		t.Errorf("frames = %d, %d", got[0].Frame, got[1].Frame)
	}
	if got[0].Time != "00:00:04.00" {
		t.Errorf("time = %q", got[0].Time)
	}
	if got[1].Speed != "1.01x" {
		t.Errorf("speed = %q", got[1].Speed)
	}
}

func TestProbeVideo(t *testing.T) {
	skipIfNoFFmpeg(t)

	clip := makeTestClip(t, t.TempDir(), 2, 30)
	e := newTestExecutor(t)

	ctx := context.Background()
	start := time.Now()
	info, err := e.ProbeVideo(ctx, clip)
	elapsed := time.Since(start)

	if err != nil {
		globalResults.Errors = append(globalResults.Errors, fmt.Sprintf("ProbeVideo failed: %v", err))
		t.Fatalf("ProbeVideo failed: %v", err)
	}

	globalResults.ProbeResults = info
	globalResults.TestDuration = elapsed

	if info.Width != 320 {
		t.Errorf("expected width 320, got %d", info.Width)
	}
	if info.Height != 240 {
		t.Errorf("expected height 240, got %d", info.Height)
	}
	if info.FPS != 30 {
		t.Errorf("expected 30 fps, got %v", info.FPS)
	}
	if info.FrameCount < 55 || info.FrameCount > 65 {
		t.Errorf("frame count %d far from 60", info.FrameCount)
	}

	t.Logf("Video info: %dx%d, %.2f fps, %d frames, duration: %v (probed in %v)",
		info.Width, info.Height, info.FPS, info.FrameCount, info.Duration, elapsed)
}

func TestProbeVideoInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	e := newTestExecutor(t)
	ctx := context.Background()

	if _, err := e.ProbeVideo(ctx, "nonexistent.mp4"); err == nil {
		t.Error("ProbeVideo should fail for non-existent file")
	}

	invalidPath := filepath.Join(t.TempDir(), "invalid.txt")
	os.WriteFile(invalidPath, []byte("not a video"), 0644)

	if _, err := e.ProbeVideo(ctx, invalidPath); err == nil {
		t.Error("ProbeVideo should fail for invalid video file")
	}
}

func TestDownsample(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	clip := makeTestClip(t, dir, 2, 30)
	e := newTestExecutor(t)
	ctx := context.Background()

	out, err := e.Downsample(ctx, clip, DownsampleOptions{FPS: 4, OutputDir: filepath.Join(dir, "down")})
	if err != nil {
		globalResults.Errors = append(globalResults.Errors, fmt.Sprintf("Downsample failed: %v", err))
		t.Fatalf("Downsample failed: %v", err)
	}
	if filepath.Base(out) != "test_4fps.mp4" {
		t.Errorf("output name = %s", filepath.Base(out))
	}

	info, err := e.ProbeVideo(ctx, out)
	if err != nil {
		t.Fatalf("probe of downsampled clip failed: %v", err)
	}
	if info.FPS != 4 {
		t.Errorf("downsampled fps = %v, want 4", info.FPS)
	}
	if info.HasAudio {
		t.Error("downsampled clip still has audio")
	}

	globalResults.DownsampleOK = true
	t.Logf("Downsampled to %s: %.0f fps, %d frames", out, info.FPS, info.FrameCount)
}

func TestFrameReaderDecode(t *testing.T) {
	skipIfNoFFmpeg(t)

	clip := makeTestClip(t, t.TempDir(), 1, 10)
	e := newTestExecutor(t)
	ctx := context.Background()

	reader, err := e.NewFrameReader(ctx, clip, 320, 240)
	if err != nil {
		t.Fatalf("NewFrameReader failed: %v", err)
	}

	count := 0
	for {
		img, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed at frame %d: %v", count, err)
		}
		if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
			t.Fatalf("frame %d is %dx%d", count, b.Dx(), b.Dy())
		}
		count++
	}
	if err := reader.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if count < 8 || count > 12 {
		t.Errorf("decoded %d frames, expected about 10", count)
	}
	globalResults.FramesDecoded = count
	t.Logf("Decoded %d raw frames", count)
}

func TestFrameWriterEncode(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	e := newTestExecutor(t)
	ctx := context.Background()
	out := filepath.Join(dir, "encoded.mp4")

	writer, err := e.NewFrameWriter(ctx, out, EncodeOptions{Width: 320, Height: 240, FPS: 10})
	if err != nil {
		t.Fatalf("NewFrameWriter failed: %v", err)
	}

	const frames = 20
	for i := 0; i < frames; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 320, 240))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i * 12)
			img.Pix[p+3] = 255
		}
		if err := writer.Write(img); err != nil {
			t.Fatalf("Write failed at frame %d: %v", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := e.ProbeVideo(ctx, out)
	if err != nil {
		t.Fatalf("probe of encoded clip failed: %v", err)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("encoded dimensions = %dx%d", info.Width, info.Height)
	}
	if info.FrameCount != frames {
		t.Errorf("encoded frame count = %d, want %d", info.FrameCount, frames)
	}

	globalResults.FramesEncoded = frames
	t.Logf("Encoded %d frames to %s", frames, out)
}

func TestFrameWriterRejectsWrongSize(t *testing.T) {
	skipIfNoFFmpeg(t)

	e := newTestExecutor(t)
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "bad.mp4")

	writer, err := e.NewFrameWriter(ctx, out, EncodeOptions{Width: 320, Height: 240, FPS: 10})
	if err != nil {
		t.Fatalf("NewFrameWriter failed: %v", err)
	}
	defer writer.Close()

	if err := writer.Write(image.NewRGBA(image.Rect(0, 0, 100, 100))); err == nil {
		t.Error("mismatched frame size accepted")
	}
}

func TestDetectScenes(t *testing.T) {
	skipIfNoFFmpeg(t)

	clip := makeTestClip(t, t.TempDir(), 2, 30)
	e := newTestExecutor(t)

	ctx := context.Background()
	start := time.Now()
	scenes, err := e.DetectScenes(ctx, clip, DefaultSceneThreshold)
	elapsed := time.Since(start)

	if err != nil {
		globalResults.Errors = append(globalResults.Errors, fmt.Sprintf("DetectScenes failed: %v", err))
		t.Fatalf("DetectScenes failed: %v", err)
	}

	globalResults.ScenesFound = len(scenes)
	t.Logf("Found %d scene changes in %v", len(scenes), elapsed)
}

func TestDetectScenesBadThreshold(t *testing.T) {
	skipIfNoFFmpeg(t)

	e := newTestExecutor(t)
	if _, err := e.DetectScenes(context.Background(), "clip.mp4", 1.5); err == nil {
		t.Error("out-of-range threshold accepted")
	}
}

// TestMain runs after all tests and prints summary
func TestMain(m *testing.M) {
	code := m.Run()

	// Print summary
	printTestSummary()

	os.Exit(code)
}

func printTestSummary() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("🎬 TEST SUMMARY - FFmpeg Layer")
	fmt.Println(strings.Repeat("=", 80))

	if globalResults.ExecutorPath != "" {
		fmt.Printf("\n✓ FFmpeg Binary: %s\n", globalResults.ExecutorPath)
	}

	if globalResults.ProbeResults != nil {
		fmt.Println("\n📹 VIDEO PROBE RESULTS:")
		fmt.Printf("  Resolution:    %dx%d @ %.2f fps\n",
			globalResults.ProbeResults.Width,
			globalResults.ProbeResults.Height,
			globalResults.ProbeResults.FPS)
		fmt.Printf("  Frames:        %d\n", globalResults.ProbeResults.FrameCount)
		fmt.Printf("  Duration:      %v\n", globalResults.ProbeResults.Duration)
		fmt.Printf("  Probe Time:    %v\n", globalResults.TestDuration)
	}

	fmt.Println("\n🎬 PROCESSING RESULTS:")
	if globalResults.DownsampleOK {
		fmt.Println("  ✓ Downsample:       SUCCESS")
	} else {
		fmt.Println("  ✗ Downsample:       SKIPPED/FAILED")
	}
	fmt.Printf("  🎞️  Frames Decoded:   %d\n", globalResults.FramesDecoded)
	fmt.Printf("  🎞️  Frames Encoded:   %d\n", globalResults.FramesEncoded)
	fmt.Printf("  🎞️  Scene Changes:    %d detected\n", globalResults.ScenesFound)

	if len(globalResults.Errors) > 0 {
		fmt.Println("\n❌ ERRORS ENCOUNTERED:")
		for i, err := range globalResults.Errors {
			fmt.Printf("  %d. %s\n", i+1, err)
		}
	} else {
		fmt.Println("\n✅ ALL TESTS PASSED - No critical errors")
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}
