package profile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoOptions is returned when the model keeps answering without numbered options.
var ErrNoOptions = errors.New("model reply has no numbered options")

const maxReplyAttempts = 3

// Conversation is a multi-turn exchange with the text model.
type Conversation interface {
	SendMessage(ctx context.Context, message string) (string, error)
}

// Interview builds a tourist profile from a companion choice and a number of
// model generated multiple choice questions.
type Interview struct {
	conv     Conversation
	template string
	rounds   int
	in       *bufio.Reader
	out      io.Writer
	logger   *slog.Logger

	title  *color.Color
	prompt *color.Color
	warn   *color.Color
}

func NewInterview(conv Conversation, template string, rounds int, in io.Reader, out io.Writer, logger *slog.Logger) *Interview {
	if rounds <= 0 {
		rounds = 3
	}
	return &Interview{
		conv:     conv,
		template: template,
		rounds:   rounds,
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logger,
		title:    color.New(color.FgCyan, color.Bold),
		prompt:   color.New(color.FgYellow),
		warn:     color.New(color.FgRed),
	}
}

// Run conducts the interview and returns the final profile text.
func (iv *Interview) Run(ctx context.Context) (string, error) {
	ctx, span := otel.Tracer("ProfileInterview").Start(ctx, "Run", trace.WithAttributes(
		attribute.Int("rounds", iv.rounds),
	))
	defer span.End()

	companion, err := iv.askCompanion()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Companion question failed")
		return "", err
	}
	profile := BaseContext + " " + companion

	for round := 1; round <= iv.rounds; round++ {
		iv.title.Fprintf(iv.out, "\n=== Iteración %d ===\n", round)

		options, err := iv.nextOptions(ctx, profile)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Question round failed")
			return "", fmt.Errorf("round %d: %w", round, err)
		}

		choice, err := iv.choose(len(options))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Reading choice failed")
			return "", err
		}
		profile = fmt.Sprintf("%s. %s", profile, options[choice-1])
		iv.logger.DebugContext(ctx, "Profile updated", slog.Int("round", round), slog.String("profile", profile))

		if round < iv.rounds {
			fmt.Fprintln(iv.out, "\nGenerando la siguiente pregunta...")
		}
	}

	iv.title.Fprintln(iv.out, "\n=== Perfil final del turista ===")
	fmt.Fprintln(iv.out, profile)
	span.SetStatus(codes.Ok, "Interview completed")
	return profile, nil
}

func (iv *Interview) askCompanion() (string, error) {
	fmt.Fprintf(iv.out, "%s ...\n 1. Familia\n 2. Amigos\n 3. Pareja\n 4. Solo\n", BaseContext)
	for {
		iv.prompt.Fprint(iv.out, "Selecciona una opción (1, 2, 3 o 4): ")
		line, err := iv.readLine()
		if err != nil {
			return "", err
		}
		if companion, ok := Companions[line]; ok {
			return companion, nil
		}
		iv.warn.Fprintln(iv.out, "Opción no válida")
	}
}

func (iv *Interview) nextOptions(ctx context.Context, profile string) ([]string, error) {
	message := BuildPrompt(iv.template, profile)
	for attempt := 1; attempt <= maxReplyAttempts; attempt++ {
		reply, err := iv.conv.SendMessage(ctx, message)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(iv.out, reply)

		if options := ExtractOptions(reply); len(options) > 0 {
			return options, nil
		}
		iv.logger.WarnContext(ctx, "Reply without options, asking again", slog.Int("attempt", attempt))
	}
	return nil, ErrNoOptions
}

func (iv *Interview) choose(n int) (int, error) {
	for {
		iv.prompt.Fprintf(iv.out, "\nPor favor selecciona una opción (1-%d):\n", n)
		line, err := iv.readLine()
		if err != nil {
			return 0, err
		}
		choice, err := strconv.Atoi(line)
		if err != nil {
			iv.warn.Fprintln(iv.out, "Por favor ingresa un número válido")
			continue
		}
		if choice < 1 || choice > n {
			iv.warn.Fprintf(iv.out, "Por favor ingresa un número entre 1 y %d\n", n)
			continue
		}
		return choice, nil
	}
}

func (iv *Interview) readLine() (string, error) {
	line, err := iv.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
