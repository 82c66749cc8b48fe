// Package relay is the command orchestrator. It takes chat messages through
// greeting and help handling, intent parsing, plan translation and device
// execution, and commits the result to the joint registry.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
	"github.com/samaysahu/Vox-GPT/pkg/device"
	"github.com/samaysahu/Vox-GPT/pkg/intent"
	"github.com/samaysahu/Vox-GPT/pkg/journal"
	"github.com/samaysahu/Vox-GPT/pkg/metrics"
	"github.com/samaysahu/Vox-GPT/pkg/plan"
)

// Status is the outcome of a request.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
	StatusEmpty Status = "empty"
)

// Kind is how a request was handled.
type Kind string

const (
	KindEmpty    Kind = "empty"
	KindGreeting Kind = "greeting"
	KindHelp     Kind = "help"
	KindCommand  Kind = "command"
	KindJog      Kind = "jog"
)

// Reply is the result of one request.
type Reply struct {
	Text   string
	Status Status
	Kind   Kind

	// Intent is set once the message has been parsed.
	Intent *intent.Intent

	// Planned and Applied count device commands.
	Planned int
	Applied int

	// Err is the validation or device failure behind an error reply.
	Err error
}

// Parser classifies chat text.
type Parser interface {
	Parse(ctx context.Context, text string) intent.Intent
}

// Device is the arm controller.
type Device interface {
	plan.Sender
	Telemetry(ctx context.Context) (device.Telemetry, error)
}

// Recorder stores handled requests.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// Relay serialises every dispatch and telemetry resync, so steps of
// overlapping requests never interleave.
type Relay struct {
	mu sync.Mutex

	reg        *arm.Registry
	parser     Parser
	translator *plan.Translator
	device     Device
	sender     plan.Sender

	journal Recorder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithJournal records every request.
func WithJournal(rec Recorder) Option {
	return func(r *Relay) {
		r.journal = rec
	}
}

// WithMetrics publishes relay and device metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a relay driving dev and tracking state in reg.
func New(reg *arm.Registry, parser Parser, dev Device, opts ...Option) *Relay {
	r := &Relay{
		reg:        reg,
		parser:     parser,
		translator: plan.NewTranslator(reg),
		device:     dev,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.sender = dev
	if r.metrics != nil {
		r.sender = &instrumentedSender{next: dev, metrics: r.metrics}
		r.publishAngles()
	}
	return r
}

// Registry returns the tracked joint state.
func (r *Relay) Registry() *arm.Registry {
	return r.reg
}

// Snapshot returns the tracked state without device I/O.
func (r *Relay) Snapshot() arm.Snapshot {
	return r.reg.Snapshot()
}

// HelpText returns the canned command list.
func (r *Relay) HelpText() string {
	return helpText(r.reg)
}

// Submit handles one chat message. It never fails; every problem becomes an
// error reply.
func (r *Relay) Submit(ctx context.Context, message string) Reply {
	text := strings.TrimSpace(message)
	reply := r.submit(ctx, text)
	r.finish(ctx, text, reply)
	return reply
}

func (r *Relay) submit(ctx context.Context, text string) Reply {
	if text == "" {
		return Reply{Text: EmptyMessage, Status: StatusEmpty, Kind: KindEmpty}
	}

	lower := strings.ToLower(text)
	if msg, ok := greeting(lower); ok {
		return Reply{Text: success(msg), Status: StatusOK, Kind: KindGreeting}
	}
	if isHelpRequest(lower) {
		return r.help(nil)
	}

	in := r.parser.Parse(ctx, text)
	if r.metrics != nil {
		r.metrics.RecordIntent(string(in.Source), string(in.Joint))
	}
	if in.IsError() {
		return r.help(&in)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.translator.Translate(in)
	if err != nil {
		return Reply{Text: failure(errorMessage(err)), Status: StatusError, Kind: KindCommand, Intent: &in, Err: err}
	}
	reply := r.run(ctx, p)
	reply.Kind = KindCommand
	return reply
}

func (r *Relay) help(in *intent.Intent) Reply {
	return Reply{Text: success(r.HelpText()), Status: StatusOK, Kind: KindHelp, Intent: in}
}

// Jog sends one raw device command and keeps the registry in step with it.
func (r *Relay) Jog(ctx context.Context, cmd device.Command) Reply {
	r.mu.Lock()
	reply := func() Reply {
		p, err := r.translator.ForCommand(cmd)
		if err != nil {
			return Reply{Text: failure(errorMessage(err)), Status: StatusError, Err: err}
		}
		return r.run(ctx, p)
	}()
	r.mu.Unlock()

	reply.Kind = KindJog
	r.finish(ctx, string(cmd), reply)
	return reply
}

// run executes p and commits it on full success. Callers hold r.mu.
func (r *Relay) run(ctx context.Context, p plan.Plan) Reply {
	in := p.Intent
	reply := Reply{Intent: &in, Planned: len(p.Commands)}

	applied, err := plan.Execute(ctx, r.sender, p)
	reply.Applied = applied
	if err != nil {
		reply.Status = StatusError
		reply.Text = failure(errorMessage(err))
		reply.Err = err
		return reply
	}

	if err := p.Apply(r.reg); err != nil {
		reply.Status = StatusError
		reply.Text = failure(errorMessage(err))
		reply.Err = err
		return reply
	}
	r.publishAngles()

	reply.Status = StatusOK
	reply.Text = success(p.Message)
	return reply
}

// Telemetry reads the controller state and merges it into the registry.
// Reported angles outside the configured limits are skipped.
func (r *Relay) Telemetry(ctx context.Context) (device.Telemetry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.device.Telemetry(ctx)
	if r.metrics != nil {
		r.metrics.RecordTelemetry(outcome(err))
	}
	if err != nil {
		return device.Telemetry{}, fmt.Errorf("read telemetry: %w", err)
	}

	for j, angle := range t.Angles() {
		if err := r.reg.TrySetAngle(j, angle); err != nil {
			r.logger.Warn("ignoring telemetry angle", "joint", j, "angle", angle, "error", err)
		}
	}
	if s, ok := t.Gripper(); ok {
		_ = r.reg.TrySetGripperState(s)
	}
	r.publishAngles()
	return t, nil
}

func (r *Relay) finish(ctx context.Context, text string, reply Reply) {
	attrs := []any{"kind", reply.Kind, "status", reply.Status}
	if reply.Intent != nil {
		attrs = append(attrs, "intent", reply.Intent.String(), "source", reply.Intent.Source)
	}
	if reply.Planned > 0 {
		attrs = append(attrs, "planned", reply.Planned, "applied", reply.Applied)
	}
	if reply.Err != nil {
		attrs = append(attrs, "error", reply.Err)
		r.logger.Warn("request failed", attrs...)
	} else {
		r.logger.Info("request handled", attrs...)
	}

	if r.metrics != nil {
		r.metrics.RecordReply(string(reply.Kind), string(reply.Status))
	}

	if r.journal == nil {
		return
	}
	e := journal.Entry{
		Message: text,
		Kind:    string(reply.Kind),
		Planned: reply.Planned,
		Applied: reply.Applied,
		Status:  string(reply.Status),
		Reply:   reply.Text,
	}
	if in := reply.Intent; in != nil {
		e.Target = string(in.Joint)
		e.Source = string(in.Source)
		if in.Value != nil {
			e.Value = fmt.Sprint(in.Value)
		}
	}
	if _, err := r.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		r.logger.Warn("journal record failed", "error", err)
	}
}

func (r *Relay) publishAngles() {
	if r.metrics == nil {
		return
	}
	for j, a := range r.reg.Snapshot().Angles {
		r.metrics.SetJointAngle(string(j), a)
	}
}

// errorMessage renders a failure for the chat user.
func errorMessage(err error) string {
	var verr *plan.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var derr *device.Error
	if errors.As(err, &derr) {
		return derr.Message()
	}
	return fmt.Sprintf("Communication error: %v", err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := device.KindOf(err); k != "" {
		return string(k)
	}
	return string(device.KindOther)
}

type instrumentedSender struct {
	next    plan.Sender
	metrics *metrics.Metrics
}

func (s *instrumentedSender) Send(ctx context.Context, cmd device.Command) error {
	start := time.Now()
	err := s.next.Send(ctx, cmd)
	s.metrics.RecordDeviceCommand(string(cmd), outcome(err), time.Since(start))
	return err
}
