package intent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samaysahu/Vox-GPT/pkg/arm"
)

// DefaultOracleTimeout bounds a single oracle consultation.
const DefaultOracleTimeout = 10 * time.Second

// JointSource is the read-only view of the registry the parser needs.
type JointSource interface {
	AngleSource
	LimitSource
}

// Parser turns text into intents, trying the oracle before the keyword
// matcher.
type Parser struct {
	joints  JointSource
	oracle  Oracle
	timeout time.Duration
	logger  *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithOracle sets the primary classifier. A nil oracle leaves the keyword
// matcher as the only stage.
func WithOracle(o Oracle) ParserOption {
	return func(p *Parser) {
		p.oracle = o
	}
}

// WithOracleTimeout bounds each oracle call.
func WithOracleTimeout(d time.Duration) ParserOption {
	return func(p *Parser) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates a parser reading joint state from joints.
func NewParser(joints JointSource, opts ...ParserOption) *Parser {
	p := &Parser{
		joints:  joints,
		timeout: DefaultOracleTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse classifies text. It never fails; any oracle problem is logged and
// the keyword matcher answers instead.
func (p *Parser) Parse(ctx context.Context, text string) Intent {
	if p.oracle != nil {
		in, err := p.consult(ctx, text)
		if err == nil {
			return in
		}
		p.logger.Warn("oracle unusable, falling back to keywords", "error", err)
	}
	return MatchKeywords(text)
}

func (p *Parser) consult(ctx context.Context, text string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	answer, err := p.oracle.Generate(ctx, BuildPrompt(text, p.joints))
	if err != nil {
		return Intent{}, fmt.Errorf("oracle generate: %w", err)
	}
	in, err := DecodeAnswer(answer)
	if err != nil {
		p.logger.Debug("oracle answer", "answer", answer)
		return Intent{}, err
	}
	return in, nil
}

var _ JointSource = (*arm.Registry)(nil)
