package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/tara-vision/codekt/internal/artifact"
	"github.com/tara-vision/codekt/internal/chat"
	"github.com/tara-vision/codekt/internal/flight"
	"github.com/tara-vision/codekt/internal/service"
)

func newViewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "view <project-id>",
		Short: "Open the project view: documentation, KT plan and questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.app.runView(cmd.Context(), args[0])
		},
	}
}

// view is the interactive project view. Artifacts load in the background
// and questions are answered while the prompt stays usable.
type view struct {
	app     *app
	loader  *artifact.Loader
	session *chat.Session
	out     io.Writer

	asking sync.WaitGroup
}

func (a *app) runView(ctx context.Context, projectID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := &view{
		app:     a,
		loader:  artifact.NewLoader(projectID, a.client, a.logger),
		session: chat.NewSession(projectID, a.client, a.logger),
		out:     a.out,
	}
	v.loader.Load(ctx)

	fmt.Fprint(a.out, a.renderer.WelcomeMessage(projectID))
	fmt.Fprintln(a.out)

	s := a.spinner()
	s.Start("Loading documentation...")
	select {
	case <-v.loader.DocsDone():
	case <-ctx.Done():
	}
	s.Stop()
	v.showDocs()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          a.renderer.PromptString(),
		HistoryFile:     a.historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newCommandCompleter(),
		Stdout:          a.out,
	})
	if err != nil {
		return fmt.Errorf("set up readline: %w", err)
	}
	defer rl.Close()
	// answers arrive while the prompt is shown; write through readline so
	// the prompt is redrawn
	v.out = rl.Stdout()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or Ctrl+C
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if strings.HasPrefix(line, "/") {
			v.handleCommand(ctx, line)
			continue
		}
		v.ask(ctx, line)
	}

	cancel()
	v.asking.Wait()
	fmt.Fprintln(a.out, "Goodbye!")
	return nil
}

// ask appends the question right away and sends it in the background. A
// question typed while the previous one is pending is refused and not sent.
func (v *view) ask(ctx context.Context, question string) {
	ex, err := v.session.Start(question)
	if errors.Is(err, flight.ErrBusy) {
		fmt.Fprintln(v.out, v.app.renderer.WarningMessage("Still waiting for the previous answer"))
		return
	}
	if ex == nil {
		return
	}

	v.asking.Add(1)
	go func() {
		defer v.asking.Done()
		msg := ex.Finish(ctx)
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintln(v.out)
		fmt.Fprint(v.out, v.app.renderer.Message(*msg))
		fmt.Fprintln(v.out)
	}()
}

func (v *view) handleCommand(ctx context.Context, line string) {
	parts := strings.Fields(line)
	baseCmd, args := parts[0], parts[1:]

	switch baseCmd {
	case "/docs":
		v.showDocs()
	case "/files":
		v.showFiles()
	case "/plan":
		v.showPlan()
	case "/status":
		fmt.Fprintln(v.out, v.app.renderer.Status(v.loader.ProjectID(), v.loader.Snapshot(),
			v.session.State() == flight.StatePending, v.session.Len()))
	case "/transcript":
		fmt.Fprint(v.out, v.app.renderer.Transcript(v.session.Transcript()))
		fmt.Fprintln(v.out)
	case "/reload":
		v.loader.Load(ctx)
		fmt.Fprintln(v.out, v.app.renderer.InfoMessage("Reloading documentation and KT plan"))
	case "/done":
		v.markDone(ctx, args)
	case "/help":
		v.showHelp()
	default:
		fmt.Fprintf(v.out, "Unknown command: %s\n", baseCmd)
		fmt.Fprintln(v.out, "Type '/help' for available commands.")
		fmt.Fprintln(v.out)
	}
}

func (v *view) showDocs() {
	r := v.app.renderer
	snap := v.loader.Snapshot()
	switch {
	case v.loader.Loading():
		fmt.Fprintln(v.out, r.InfoMessage("Documentation is still loading"))
	case snap.Docs.Available():
		fmt.Fprint(v.out, r.Documentation(snap.Docs.Value))
	default:
		v.app.logger.Debug("documentation unavailable", "error", snap.Docs.Err)
		fmt.Fprintln(v.out, r.WarningMessage("Documentation is unavailable. Try /reload"))
	}
	fmt.Fprintln(v.out)
}

func (v *view) showFiles() {
	r := v.app.renderer
	snap := v.loader.Snapshot()
	switch {
	case v.loader.Loading():
		fmt.Fprintln(v.out, r.InfoMessage("File metrics are still loading"))
	case snap.Docs.Available():
		fmt.Fprint(v.out, r.Files(snap.Docs.Value.Files))
	default:
		fmt.Fprintln(v.out, r.WarningMessage("File metrics are unavailable. Try /reload"))
	}
	fmt.Fprintln(v.out)
}

func (v *view) showPlan() {
	r := v.app.renderer
	plan := v.loader.Snapshot().Plan
	switch plan.Status {
	case artifact.StatusPending:
		fmt.Fprintln(v.out, r.InfoMessage("The KT plan is still loading"))
	case artifact.StatusAvailable:
		fmt.Fprint(v.out, r.Plan(plan.Value))
	default:
		v.app.logger.Debug("kt plan unavailable", "error", plan.Err)
		fmt.Fprintln(v.out, r.WarningMessage("The KT plan is unavailable. Try /reload"))
	}
	fmt.Fprintln(v.out)
}

// markDone records a finished KT day and reloads the plan
func (v *view) markDone(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(v.out, "Usage: /done <day> [notes]")
		fmt.Fprintln(v.out)
		return
	}
	day, err := strconv.Atoi(args[0])
	if err != nil || day < 1 {
		fmt.Fprintln(v.out, v.app.renderer.WarningMessage("Day must be a positive number"))
		return
	}

	update := service.ProgressUpdate{Day: day, Completed: true, Notes: strings.Join(args[1:], " ")}
	if err := v.app.client.UpdateProgress(ctx, v.loader.ProjectID(), update); err != nil {
		v.app.logger.Warn("progress update failed", "day", day, "error", err)
		fmt.Fprintln(v.out, v.app.renderer.ErrorMessage(errors.New(userMessage(err))))
		return
	}
	fmt.Fprintln(v.out, v.app.renderer.SuccessMessage(fmt.Sprintf("Day %d marked as done", day)))
	v.loader.Load(ctx)
}

func (v *view) showHelp() {
	fmt.Fprintln(v.out, "Available commands:")
	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, "  Artifacts:")
	fmt.Fprintln(v.out, "    /docs          - Show the generated documentation")
	fmt.Fprintln(v.out, "    /files         - Show per-file metrics")
	fmt.Fprintln(v.out, "    /plan          - Show the KT plan")
	fmt.Fprintln(v.out, "    /done <day>    - Mark a KT day as done (optional notes after the day)")
	fmt.Fprintln(v.out, "    /reload        - Fetch documentation and KT plan again")
	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, "  Chat:")
	fmt.Fprintln(v.out, "    <question>     - Ask about the codebase")
	fmt.Fprintln(v.out, "    /transcript    - Show all questions and answers")
	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, "  Other:")
	fmt.Fprintln(v.out, "    /status        - Show loading and chat state")
	fmt.Fprintln(v.out, "    /help          - Show this help message")
	fmt.Fprintln(v.out, "    exit           - Leave the project view")
	fmt.Fprintln(v.out)
}

// viewCommands are completed by Tab at the start of a line
var viewCommands = []string{"/docs", "/files", "/plan", "/done", "/reload", "/transcript", "/status", "/help", "exit"}

func newCommandCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, len(viewCommands))
	for i, c := range viewCommands {
		items[i] = readline.PcItem(c)
	}
	return readline.NewPrefixCompleter(items...)
}

// terminalWidth is the markdown wrap width, capped for readability
func terminalWidth() int {
	w := readline.GetScreenWidth()
	if w <= 0 {
		return 0
	}
	if w > 120 {
		return 120
	}
	return w - 2
}
