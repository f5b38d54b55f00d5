package main

import (
	"bufio"
	"chester/internal/pkg/board"
	"chester/internal/pkg/chatSession"
	"chester/internal/pkg/commands"
	"chester/internal/pkg/failures"
	"chester/internal/pkg/game"
	"context"
	"errors"
	"fmt"
	"github.com/charmbracelet/lipgloss"
	"io"
	"strings"
	"sync"
)

var cliCommands = []struct {
	usage       string
	description string
}{
	{"/move e2e4", "Play a move for white; I answer with black"},
	{"/redo", "Ask the last question again"},
	{"/history", "Display conversation history"},
	{"/board", "Draw the board"},
	{"/level [name]", "Show or set your skill level"},
	{"/clear", "Start a new game"},
	{"/help", "Show this help message"},
	{"/quit", "Exit the application"},
}

type terminalGame struct {
	reader   *bufio.Reader
	out      io.Writer
	board    *board.ChessBoard
	renderer *lipgloss.Renderer

	mutex      sync.Mutex
	lastUpdate *chatSession.Update
}

func newTerminalGame(in io.Reader, out io.Writer, chessBoard *board.ChessBoard) *terminalGame {
	return &terminalGame{
		reader:   bufio.NewReader(in),
		out:      out,
		board:    chessBoard,
		renderer: lipgloss.NewRenderer(out),
	}
}

// onUpdate keeps the last finished request so answers produced in the background can be shown.
func (instance *terminalGame) onUpdate(update chatSession.Update) {
	if update.Event != chatSession.EventCompleted && update.Event != chatSession.EventFailed {
		return
	}
	instance.mutex.Lock()
	instance.lastUpdate = &update
	instance.mutex.Unlock()
}

func (instance *terminalGame) takeLastUpdate() *chatSession.Update {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	update := instance.lastUpdate
	instance.lastUpdate = nil
	return update
}

func (instance *terminalGame) run(ctx context.Context, session chatSession.ChatSession) error {
	instance.println("Welcome to Chester. Type a question, a command, or /help.")
	instance.printInteraction(session.Interactions()[0])

	for {
		fmt.Fprint(instance.out, "\nYou: ")
		line, err := instance.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read input: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		input := strings.TrimSpace(line)
		if input != "" {
			if quit := instance.handle(ctx, session, input); quit {
				return nil
			}
		}
		if eof {
			instance.println("\nGoodbye!")
			return nil
		}
	}
}

// handle runs one line of input and reports whether the user asked to leave.
func (instance *terminalGame) handle(ctx context.Context, session chatSession.ChatSession, input string) bool {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit":
		instance.println("\nGoodbye!")
		return true
	case "/help":
		instance.printHelp()
	case "/board":
		instance.println(instance.board.Render())
	case "/history":
		for _, interaction := range session.Interactions() {
			instance.printInteraction(interaction)
		}
	case "/clear":
		if _, err := session.Clear(ctx); err != nil {
			instance.printError(err)
			return false
		}
		instance.println("New game started.")
		instance.printInteraction(session.Interactions()[0])
	case "/level":
		instance.level(ctx, session, fields[1:])
	case "/redo":
		instance.println("Thinking...")
		update, err := session.Reask(ctx)
		instance.printResult(update, err)
	case "/move":
		instance.move(ctx, session, fields[1:])
	default:
		instance.println("Thinking...")
		update, err := session.Submit(ctx, input)
		instance.printResult(update, err)
	}
	return false
}

func (instance *terminalGame) level(ctx context.Context, session chatSession.ChatSession, args []string) {
	if len(args) == 0 {
		current := session.Snapshot().SkillLevel
		instance.printf("Skill level: %s (%s)\n", current, current.Rating())
		for _, level := range commands.SkillLevels() {
			instance.printf("  %s (%s)\n", level, level.Rating())
		}
		return
	}

	update, err := session.SetSkillLevel(ctx, strings.Join(args, " "))
	if err != nil {
		instance.printError(err)
		return
	}
	instance.printf("Skill level set to %s (%s)\n", update.SkillLevel, update.SkillLevel.Rating())
}

func (instance *terminalGame) move(ctx context.Context, session chatSession.ChatSession, args []string) {
	from, to, ok := parseMove(args)
	if !ok {
		instance.println("Usage: /move e2e4 or /move e2 e4")
		return
	}

	instance.takeLastUpdate()
	update, err := session.ApplyHumanMove(ctx, from, to)
	if err != nil {
		instance.printError(err)
		return
	}
	instance.println(instance.board.Render())
	if !update.Processing {
		instance.printOutcome(update.Outcome)
		return
	}

	instance.println("Thinking...")
	session.Wait()
	if answer := instance.takeLastUpdate(); answer != nil {
		if answer.Event == chatSession.EventFailed {
			instance.printf("%s\n", instance.renderer.NewStyle().Foreground(lipgloss.Color("1")).
				Render("Error: "+answer.Message+". Type /opponent to try again."))
			return
		}
		instance.printResult(*answer, nil)
		if answer.AppliedMove != nil {
			instance.println(instance.board.Render())
		}
		instance.printOutcome(answer.Outcome)
	}
}

// parseMove accepts "e2e4" or "e2 e4".
func parseMove(args []string) (game.Square, game.Square, bool) {
	joined := strings.ToLower(strings.Join(args, ""))
	if len(joined) != 4 {
		return "", "", false
	}
	from, to := game.Square(joined[:2]), game.Square(joined[2:])
	if !from.IsValid() || !to.IsValid() {
		return "", "", false
	}
	return from, to, true
}

func (instance *terminalGame) printResult(update chatSession.Update, err error) {
	if err != nil {
		instance.printError(err)
		return
	}
	if len(update.History) > 0 {
		instance.printInteraction(update.History[len(update.History)-1])
	}
	if update.Response == nil {
		return
	}
	details := fmt.Sprintf("Win probability: %.0f%%", update.Response.WinProbability*100)
	if update.Response.HasMove() {
		details += fmt.Sprintf("  Move: %s-%s", update.Response.From, update.Response.To)
	}
	instance.println(instance.renderer.NewStyle().Faint(true).Render(details))
}

func (instance *terminalGame) printInteraction(interaction chatSession.ChatInteraction) {
	if !interaction.IsBot {
		instance.printf("You: %s\n", interaction.Message)
		return
	}
	style := instance.renderer.NewStyle().Bold(true)
	if interaction.Command != "" {
		style = style.Foreground(lipgloss.Color(commands.Parse(interaction.Command).Command.ColorCode()))
	}
	instance.printf("%s %s\n", style.Render("Chester:"), interaction.Message)
}

func (instance *terminalGame) printOutcome(outcome string) {
	if outcome == "" || outcome == "*" {
		return
	}
	instance.printf("Game over: %s. Type /clear to play again.\n", outcome)
}

func (instance *terminalGame) printHelp() {
	instance.println("\nAvailable Commands:")
	for _, command := range commands.All() {
		if command == commands.Question {
			continue
		}
		style := instance.renderer.NewStyle().Foreground(lipgloss.Color(command.ColorCode()))
		instance.printf("  %s - %s\n", style.Render(command.Token()), command.Description())
	}
	for _, command := range cliCommands {
		instance.printf("  %s - %s\n", command.usage, command.description)
	}
	instance.println("Anything else is sent as a question about the position.")
}

func (instance *terminalGame) printError(err error) {
	instance.println(instance.renderer.NewStyle().Foreground(lipgloss.Color("1")).Render("Error: " + failures.Message(err)))
}

func (instance *terminalGame) println(text string) {
	fmt.Fprintln(instance.out, text)
}

func (instance *terminalGame) printf(format string, args ...any) {
	fmt.Fprintf(instance.out, format, args...)
}
