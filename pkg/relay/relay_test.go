package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/device/sim"
	"github.com/samaysahu/Vox-GPT/pkg/intent"
	"github.com/samaysahu/Vox-GPT/pkg/journal"
	"github.com/samaysahu/Vox-GPT/pkg/metrics"
	"github.com/samaysahu/Vox-GPT/pkg/plan"
)

// fakeDevice fails the given 1-based call with err.
type fakeDevice struct {
	failOn    int
	err       error
	sent      []device.Command
	telemetry device.Telemetry
	telErr    error
}

func (d *fakeDevice) Send(_ context.Context, cmd device.Command) error {
	d.sent = append(d.sent, cmd)
	if len(d.sent) == d.failOn {
		return d.err
	}
	return nil
}

func (d *fakeDevice) Telemetry(context.Context) (device.Telemetry, error) {
	return d.telemetry, d.telErr
}

// gatedParser holds every Parse until n of them have returned from the
// wrapped parser.
type gatedParser struct {
	inner Parser
	wg    sync.WaitGroup
}

func newGatedParser(inner Parser, n int) *gatedParser {
	g := &gatedParser{inner: inner}
	g.wg.Add(n)
	return g
}

func (g *gatedParser) Parse(ctx context.Context, text string) intent.Intent {
	in := g.inner.Parse(ctx, text)
	g.wg.Done()
	g.wg.Wait()
	return in
}

func newRelay(t *testing.T, dev Device, opts ...Option) *Relay {
	t.Helper()
	reg := arm.NewDefaultRegistry()
	return New(reg, intent.NewParser(reg), dev, opts...)
}

func newSimRelay(t *testing.T, opts ...Option) (*Relay, *sim.Simulator) {
	t.Helper()
	s := sim.New(nil)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	client, err := device.NewClient(device.Config{URL: srv.URL})
	require.NoError(t, err)
	return newRelay(t, client, opts...), s
}

func angle(t *testing.T, r *Relay, j arm.JointName) int {
	t.Helper()
	a, err := r.Registry().Angle(j)
	require.NoError(t, err)
	return a
}

func TestSubmit_ShortCircuits(t *testing.T) {
	dev := &fakeDevice{}
	r := newRelay(t, dev)
	ctx := context.Background()

	reply := r.Submit(ctx, "   ")
	assert.Equal(t, StatusEmpty, reply.Status)
	assert.Equal(t, EmptyMessage, reply.Text)

	reply = r.Submit(ctx, " Hello ")
	assert.Equal(t, KindGreeting, reply.Kind)
	assert.Equal(t, "✅ "+greetings["hello"], reply.Text)

	reply = r.Submit(ctx, "How are you")
	assert.Equal(t, KindGreeting, reply.Kind)

	reply = r.Submit(ctx, "help")
	assert.Equal(t, KindHelp, reply.Kind)
	assert.Equal(t, StatusOK, reply.Status)
	assert.True(t, strings.HasPrefix(reply.Text, "✅ This chatbot is designed to control a robotic arm."))
	assert.Contains(t, reply.Text, "- move wrist to -30 degrees")
	assert.True(t, strings.HasSuffix(reply.Text, "Joints (base, wrist) range: -180 to 180 degrees. Shoulder, elbow range: 0 to 170 degrees."))

	reply = r.Submit(ctx, "what can I do with the base?")
	assert.Equal(t, KindHelp, reply.Kind, "help wins over joint keywords")
	assert.Nil(t, reply.Intent)

	reply = r.Submit(ctx, "what is my name")
	assert.Equal(t, KindHelp, reply.Kind)
	require.NotNil(t, reply.Intent)
	assert.True(t, reply.Intent.IsError())

	assert.Empty(t, dev.sent)
}

func TestSubmit_MoveAgainstSimulator(t *testing.T) {
	r, s := newSimRelay(t)

	reply := r.Submit(context.Background(), "move base to 110 degrees")
	assert.Equal(t, StatusOK, reply.Status)
	assert.Equal(t, "✅ Moved base to 110 degrees", reply.Text)
	assert.Equal(t, 4, reply.Planned)
	assert.Equal(t, 4, reply.Applied)

	assert.Equal(t, 110, angle(t, r, arm.Base))
	assert.Equal(t, 110, *s.Telemetry().BaseAngle)
	assert.Len(t, s.Received(), 4)
}

func TestSubmit_TimeoutOnSecondStep(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if calls.Add(1) == 2 {
			select {
			case <-req.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := device.NewClient(device.Config{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	r := newRelay(t, client)

	reply := r.Submit(context.Background(), "move base to 110 degrees")

	assert.Equal(t, StatusError, reply.Status)
	assert.True(t, strings.HasPrefix(reply.Text, "❌ "))
	assert.Contains(t, reply.Text, "timeout")
	assert.Equal(t, 4, reply.Planned)
	assert.Equal(t, 1, reply.Applied)
	assert.Equal(t, int32(2), calls.Load(), "no step is sent after the failure")

	var stepErr *plan.StepError
	require.ErrorAs(t, reply.Err, &stepErr)
	assert.Equal(t, 2, stepErr.Step)
	assert.Equal(t, device.KindTimeout, device.KindOf(reply.Err))

	assert.Equal(t, 90, angle(t, r, arm.Base))
}

func TestSubmit_ValidationMakesNoDeviceCall(t *testing.T) {
	dev := &fakeDevice{}
	r := newRelay(t, dev)

	reply := r.Submit(context.Background(), "move shoulder to 300 degrees")
	assert.Equal(t, StatusError, reply.Status)
	assert.Equal(t, "❌ Angle out of range (0 to 170)", reply.Text)
	assert.Empty(t, dev.sent)
}

func TestSubmit_GripperIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	r := newRelay(t, dev)
	ctx := context.Background()

	assert.Equal(t, "✅ Gripper is now closed", r.Submit(ctx, "close gripper").Text)
	assert.Equal(t, "✅ Gripper is already closed", r.Submit(ctx, "close the gripper").Text)
	assert.Equal(t, []device.Command{device.GripperToggle}, dev.sent)
	assert.Equal(t, arm.Closed, r.Registry().GripperState())
}

func TestSubmit_EmergencyStop(t *testing.T) {
	t.Run("success resets", func(t *testing.T) {
		dev := &fakeDevice{}
		r := newRelay(t, dev)
		require.NoError(t, r.Registry().TrySetAngle(arm.Elbow, 20))
		require.NoError(t, r.Registry().TrySetGripperState(arm.Closed))

		reply := r.Submit(context.Background(), "emergency stop now")
		assert.Equal(t, "✅ "+plan.EmergencyMessage, reply.Text)
		assert.Equal(t, 90, angle(t, r, arm.Elbow))
		assert.Equal(t, arm.Open, r.Registry().GripperState())
	})

	t.Run("failure leaves registry", func(t *testing.T) {
		dev := &fakeDevice{failOn: 1, err: &device.Error{Kind: device.KindUnreachable, Command: device.EmergencyStop, Err: errors.New("connection refused")}}
		r := newRelay(t, dev)
		require.NoError(t, r.Registry().TrySetAngle(arm.Elbow, 20))

		reply := r.Submit(context.Background(), "stop")
		assert.Equal(t, "❌ Cannot connect to ESP32 - check IP address and network connection", reply.Text)
		assert.Equal(t, 20, angle(t, r, arm.Elbow))
	})
}

func TestJog(t *testing.T) {
	r, s := newSimRelay(t)
	ctx := context.Background()

	reply := r.Jog(ctx, device.WaistLeft)
	assert.Equal(t, KindJog, reply.Kind)
	assert.Equal(t, "✅ Moved base to 85 degrees", reply.Text)
	assert.Equal(t, 85, angle(t, r, arm.Base))

	reply = r.Jog(ctx, device.GripperToggle)
	assert.Equal(t, StatusOK, reply.Status)
	assert.Equal(t, arm.Closed, r.Registry().GripperState())
	assert.Equal(t, "Closed", s.Telemetry().GripperState)

	reply = r.Jog(ctx, device.Command("JUMP"))
	assert.Equal(t, StatusError, reply.Status)
	assert.Equal(t, "❌ Invalid command", reply.Text)
	assert.Len(t, s.Received(), 2)
}

func TestTelemetryResync(t *testing.T) {
	base, shoulder := 45, 300
	dev := &fakeDevice{telemetry: device.Telemetry{
		BaseAngle:     &base,
		ShoulderAngle: &shoulder,
		GripperState:  "Closed",
	}}
	r := newRelay(t, dev)

	got, err := r.Telemetry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dev.telemetry, got)

	assert.Equal(t, 45, angle(t, r, arm.Base))
	assert.Equal(t, 90, angle(t, r, arm.Shoulder), "out of range angle is skipped")
	assert.Equal(t, 90, angle(t, r, arm.Elbow), "missing angle is unchanged")
	assert.Equal(t, arm.Closed, r.Registry().GripperState())

	dev.telErr = &device.Error{Kind: device.KindTimeout, Err: context.DeadlineExceeded}
	_, err = r.Telemetry(context.Background())
	assert.Equal(t, device.KindTimeout, device.KindOf(err))
}

func TestJournalAndMetrics(t *testing.T) {
	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()
	m := metrics.New("")

	r, _ := newSimRelay(t, WithJournal(j), WithMetrics(m))
	ctx := context.Background()

	r.Submit(ctx, "move base to 110 degrees")
	r.Submit(ctx, "hi")

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	cmd := entries[1]
	assert.Equal(t, "move base to 110 degrees", cmd.Message)
	assert.Equal(t, "command", cmd.Kind)
	assert.Equal(t, "base", cmd.Target)
	assert.Equal(t, "110", cmd.Value)
	assert.Equal(t, "keywords", cmd.Source)
	assert.Equal(t, 4, cmd.Applied)
	assert.Equal(t, "ok", cmd.Status)

	assert.Equal(t, "greeting", entries[0].Kind)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.DeviceCommandsTotal.WithLabelValues("WAIST_RIGHT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepliesTotal.WithLabelValues("command", "ok")))
	assert.Equal(t, 110.0, testutil.ToFloat64(m.JointAngle.WithLabelValues("base")))
}

func TestHelpText_CustomLimits(t *testing.T) {
	limits := arm.DefaultLimits()
	limits[arm.Wrist] = arm.Limits{Min: -90, Max: 90}
	reg, err := arm.NewRegistry(limits)
	require.NoError(t, err)

	r := New(reg, intent.NewParser(reg), &fakeDevice{})
	assert.Contains(t, r.HelpText(), "Wrist range: -90 to 90 degrees.")
}

func TestSubmit_ConcurrentRelativeMoves(t *testing.T) {
	s := sim.New(nil)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	client, err := device.NewClient(device.Config{URL: srv.URL})
	require.NoError(t, err)

	reg := arm.NewDefaultRegistry()
	r := New(reg, newGatedParser(intent.NewParser(reg), 2), client)

	replies := make([]Reply, 2)
	var wg sync.WaitGroup
	for i := range replies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			replies[i] = r.Submit(context.Background(), "raise the elbow")
		}()
	}
	wg.Wait()

	var texts []string
	for _, reply := range replies {
		assert.Equal(t, StatusOK, reply.Status)
		texts = append(texts, reply.Text)
	}
	assert.ElementsMatch(t, []string{"✅ Moved elbow to 120 degrees", "✅ Moved elbow to 150 degrees"}, texts)
	assert.Equal(t, 150, angle(t, r, arm.Elbow))
	assert.Equal(t, 150, *s.Telemetry().ElbowAngle)
	assert.Len(t, s.Received(), 12)
}

func TestSubmit_OverflowingAngleIsOutOfRange(t *testing.T) {
	dev := &fakeDevice{}
	r := newRelay(t, dev)

	reply := r.Submit(context.Background(), "move base to 99999999999999999999 degrees")
	assert.Equal(t, KindCommand, reply.Kind)
	assert.Equal(t, StatusError, reply.Status)
	assert.Equal(t, "❌ Angle out of range (-180 to 180)", reply.Text)
	assert.Empty(t, dev.sent)
}

func TestSubmit_HelpPhrasesMatchWholeWords(t *testing.T) {
	dev := &fakeDevice{}
	r := newRelay(t, dev)
	ctx := context.Background()

	reply := r.Submit(ctx, "show to me: move base to 45 degrees")
	assert.Equal(t, KindCommand, reply.Kind)
	assert.Equal(t, "✅ Moved base to 45 degrees", reply.Text)
	assert.Len(t, dev.sent, 9)

	assert.Equal(t, KindHelp, r.Submit(ctx, "how to use this").Kind)
	assert.Equal(t, KindHelp, r.Submit(ctx, "I need help!").Kind)
}

func TestIsHelpRequest(t *testing.T) {
	assert.True(t, isHelpRequest("help"))
	assert.True(t, isHelpRequest("what can i do?"))
	assert.True(t, isHelpRequest("how to move the wrist"))
	assert.False(t, isHelpRequest("show to me the base"))
	assert.False(t, isHelpRequest("helpful gripper, close"))
}
