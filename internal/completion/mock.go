package completion

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/diogo/chatui/internal/errors"
	"github.com/diogo/chatui/internal/logging"
	"github.com/diogo/chatui/internal/models"
)

// FailureMessage is the error text of a simulated failure
const FailureMessage = "Failed to get response from the AI model. Please try again."

// Mock simulates a completion backend: a random delay, an occasional failure
// and a canned reply chosen by keywords in the prompt.
type Mock struct {
	minLatency  time.Duration
	maxLatency  time.Duration
	failureRate float64
	log         zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Client = (*Mock)(nil)

// MockOption configures a Mock
type MockOption func(*Mock)

// WithLatency sets the simulated delay range
func WithLatency(min, max time.Duration) MockOption {
	return func(m *Mock) {
		m.minLatency = min
		m.maxLatency = max
	}
}

// WithFailureRate sets the probability in [0, 1] of a simulated failure
func WithFailureRate(p float64) MockOption {
	return func(m *Mock) { m.failureRate = p }
}

// WithRand replaces the random source
func WithRand(r *rand.Rand) MockOption {
	return func(m *Mock) { m.rng = r }
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) MockOption {
	return func(m *Mock) { m.log = log }
}

// NewMock creates a mock with 300-2000ms latency and a 5% failure rate
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		minLatency:  300 * time.Millisecond,
		maxLatency:  2000 * time.Millisecond,
		failureRate: 0.05,
		log:         zerolog.Nop(),
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.maxLatency < m.minLatency {
		m.maxLatency = m.minLatency
	}
	return m
}

// SendMessage waits for the simulated delay, then fails or replies
func (m *Mock) SendMessage(ctx context.Context, content string, history []models.Message, modelID string, settings models.Settings) (string, error) {
	delay, fail := m.roll()

	m.log.Debug().
		Str("model", modelID).
		Str("content", logging.Redact(content)).
		Int("history", len(history)).
		Float64("temperature", settings.Temperature).
		Int("max_tokens", settings.MaxTokens).
		Dur("delay", delay).
		Msg("sending message")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	if fail {
		return "", apperrors.NewCompletionError(modelID, FailureMessage)
	}
	return Reply(content, modelID), nil
}

func (m *Mock) roll() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delay := m.minLatency
	if span := m.maxLatency - m.minLatency; span > 0 {
		delay += time.Duration(m.rng.Int64N(int64(span)))
	}
	return delay, m.rng.Float64() < m.failureRate
}

const codeSample = "Here's a simple example of how you might approach this with code:\n\n" +
	"```go\n" +
	"func processData(input []byte) ([]Item, error) {\n" +
	"\tvar items []Item\n" +
	"\tif err := json.Unmarshal(input, &items); err != nil {\n" +
	"\t\treturn nil, err\n" +
	"\t}\n" +
	"\tfor i := range items {\n" +
	"\t\titems[i].Value *= 2\n" +
	"\t}\n" +
	"\treturn items, nil\n" +
	"}\n" +
	"```\n\n" +
	"Would you like me to explain how this code works or adjust it to better fit your specific needs?"

// Reply returns the canned reply for content as given by modelID. Unknown
// model ids answer as the first catalog entry.
func Reply(content, modelID string) string {
	model, ok := models.ModelByID(modelID)
	if !ok {
		model = models.AllModels()[0]
	}
	prefix := fmt.Sprintf("As %s by %s, ", model.Name, model.Provider)
	lower := strings.ToLower(content)

	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return prefix + "I'm happy to assist you today! How can I help you with your tasks?"
	case strings.Contains(lower, "who are you"):
		useCases := model.UseCases
		if len(useCases) > 2 {
			useCases = useCases[:2]
		}
		return fmt.Sprintf("%sI'm an AI assistant designed to be helpful, harmless, and honest. My strengths include %s. I'm commonly used for %s, and other tasks.",
			prefix, strings.Join(model.Strengths, ", "), strings.Join(useCases, ", "))
	case strings.Contains(lower, "how do i"):
		return prefix + "I'd be happy to help with your question. To provide the best guidance, could you please provide more specific details about what you're trying to accomplish?"
	case strings.Contains(lower, "code") || strings.Contains(lower, "function"):
		return prefix + codeSample
	}
	return prefix + "Thank you for your message. I'm processing your request and will do my best to provide a helpful response. Could you provide more details so I can give you a more specific answer?"
}
