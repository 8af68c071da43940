package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/blueeyes/writer/internal/config"
	"github.com/blueeyes/writer/internal/config/autoconfig"
	"github.com/blueeyes/writer/internal/document"
	"github.com/blueeyes/writer/internal/editor"
	"github.com/blueeyes/writer/internal/richtext"
)

func scriptCmd() *cobra.Command {
	var (
		fileName  string
		askerCmd  string
		keepGoing bool
	)

	cmd := cobra.Command{
		Use:   "script [script-file]",
		Short: "Drive an editor session with a script of editing commands.",
		Long: `Script runs editing commands, one per line, against an editor session.
The script is read from the file argument or from stdin. Lines are split
like a shell would split them and "#" starts a comment.

Commands:
  live on|off             switch between raw and live mode
  focus | blur            give or take input focus of the live surface
  type TEXT               type text at the caret
  enter                   press Enter
  select START END        select a range; rune offsets in raw mode
  cursor POS              collapse the selection at POS
  dispatch NAME           run a formatting command, e.g. strong or table
  format PREFIX [SUFFIX]  insert formatting markup around the selection
  table ROWS COLS         insert a table
  image PATH              insert an image
  answer table ROWS COLS  queue the answer to the next table prompt
  answer image PATH       queue the answer to the next image prompt
  answer cancel           cancel the next prompt
  set TEXT                replace the content from outside the editor
  load FILE               same as set with the contents of FILE
  switch FILE             make FILE the active document
  lang [NAME]             print or set the code block language
  font SIZE               set the font size
  generate PROMPT         insert text produced by --asker-cmd
  save                    record the content in the history
  history                 print the history, newest first
  restore N               restore the Nth newest history entry
  print                   print the content
  html                    print the live surface
  selection               print the selected text
  write FILE              write the content to FILE`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrapf(err, "failed to open script %q", args[0])
				}
				defer f.Close()
				in = f
			}

			return invoke(func(newEditor autoconfig.EditorFactory, cfg *config.Config, logger *zap.Logger) error {
				doc := document.New("untitled", "")
				if fileName != "" {
					data, err := readSource(cmd, fileName)
					if err != nil {
						return err
					}
					doc = document.NewFromFile(fileName, data)
				}

				r := &scriptRunner{
					out:      cmd.OutOrStdout(),
					prompter: &scriptPrompter{limits: autoconfig.TableLimits(cfg)},
					logger:   loggerFor(logger, cmd),
				}
				if askerCmd != "" {
					argv, err := shlex.Split(askerCmd)
					if err != nil || len(argv) == 0 {
						return errors.Errorf("invalid asker command %q", askerCmd)
					}
					r.asker = &execAsker{argv: argv}
				}
				r.editor = newEditor(doc, editor.WithPrompter(r.prompter))

				return r.run(cmd.Context(), in, keepGoing)
			})
		},
	}

	cmd.Flags().StringVar(&fileName, "file", "", "Markdown file to open before the script runs.")
	cmd.Flags().StringVar(&askerCmd, "asker-cmd", "", "Command that answers generate prompts; it reads the prompt on stdin.")
	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "Continue after a failing line and report all failures.")

	return &cmd
}

type scriptRunner struct {
	editor   *editor.Editor
	prompter *scriptPrompter
	asker    editor.Asker
	out      io.Writer
	logger   *zap.Logger
}

func (r *scriptRunner) run(ctx context.Context, in io.Reader, keepGoing bool) error {
	var result error

	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields, err := shlex.Split(scanner.Text())
		if err == nil && len(fields) == 0 {
			continue
		}
		if err == nil {
			r.logger.Debug("running script line", zap.Int("line", lineNo), zap.Strings("fields", fields))
			err = r.exec(ctx, fields[0], fields[1:])
		}
		if err != nil {
			err = errors.Wrapf(err, "line %d", lineNo)
			if !keepGoing {
				return err
			}
			result = multierr.Append(result, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return multierr.Append(result, errors.Wrap(err, "failed to read script"))
	}
	return result
}

func (r *scriptRunner) exec(ctx context.Context, name string, args []string) error {
	ed := r.editor

	switch name {
	case "live":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		switch args[0] {
		case "on":
			ed.SetLive(true)
		case "off":
			ed.SetLive(false)
		default:
			return errors.Errorf("expected on or off, got %q", args[0])
		}

	case "focus", "blur":
		s, err := r.surface()
		if err != nil {
			return err
		}
		if name == "focus" {
			s.Focus()
		} else {
			s.Blur()
		}

	case "type":
		ed.Input(strings.Join(args, " "))

	case "enter":
		if s := ed.Surface(); s != nil {
			s.Enter()
		} else {
			ed.Input("\n")
		}

	case "select", "cursor":
		want := 2
		if name == "cursor" {
			want = 1
		}
		if err := wantArgs(args, want); err != nil {
			return err
		}
		pos, err := atois(args)
		if err != nil {
			return err
		}
		if want == 1 {
			pos = append(pos, pos[0])
		}
		if s := ed.Surface(); s != nil {
			s.SelectOffsets(pos[0], pos[1])
		} else {
			ed.Buffer().Select(pos[0], pos[1])
		}

	case "dispatch":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		command, err := editor.ParseCommand(args[0])
		if err != nil {
			return err
		}
		return ed.Dispatch(ctx, command)

	case "format":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("expected a prefix and an optional suffix")
		}
		suffix := ""
		if len(args) == 2 {
			suffix = args[1]
		}
		ed.InsertFormat(args[0], suffix)

	case "table":
		if err := wantArgs(args, 2); err != nil {
			return err
		}
		size, err := tableSize(args)
		if err != nil {
			return err
		}
		if err := editor.ValidateTableSize(size, r.prompter.limits); err != nil {
			return err
		}
		ed.InsertTable(size)

	case "image":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		ref, err := imageRef(args[0])
		if err != nil {
			return err
		}
		ed.InsertImage(ref)

	case "answer":
		return r.answer(args)

	case "set":
		ed.SetContent(strings.Join(args, " "))

	case "load":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrapf(err, "failed to read %q", args[0])
		}
		ed.SetContent(string(data))

	case "switch":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrapf(err, "failed to read %q", args[0])
		}
		ed.Switch(document.NewFromFile(args[0], data))

	case "lang":
		if len(args) == 0 {
			lang, ok := ed.CodeLanguage()
			if !ok {
				return r.println("(none)")
			}
			return r.println(lang)
		}
		if _, ok := ed.CodeLanguage(); !ok {
			return errors.New("the caret is not in a code block")
		}
		ed.SetCodeLanguage(args[0])

	case "font":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		size, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Errorf("%q is not a number", args[0])
		}
		ed.SetFontSize(size)

	case "generate":
		if r.asker == nil {
			return errors.New("generate needs --asker-cmd")
		}
		return ed.InsertGenerated(ctx, r.asker, strings.Join(args, " "))

	case "save":
		entry := ed.Save()
		return r.println(entry.Summary)

	case "history":
		for i, entry := range ed.History() {
			if err := r.println(fmt.Sprintf("%d %s", i, entry.Summary)); err != nil {
				return err
			}
		}

	case "restore":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		idx, err := strconv.Atoi(args[0])
		entries := ed.History()
		if err != nil || idx < 0 || idx >= len(entries) {
			return errors.Errorf("no history entry %q", args[0])
		}
		return ed.Restore(entries[idx].ID)

	case "print":
		_, err := io.WriteString(r.out, ed.Content())
		if err == nil && !strings.HasSuffix(ed.Content(), "\n") {
			_, err = io.WriteString(r.out, "\n")
		}
		return errors.WithStack(err)

	case "html":
		s, err := r.surface()
		if err != nil {
			return err
		}
		return r.println(s.HTML())

	case "selection":
		return r.println(ed.Selection())

	case "write":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		return errors.Wrapf(os.WriteFile(args[0], []byte(ed.Content()), 0o644), "failed to write %q", args[0])

	default:
		return errors.Errorf("unknown command %q", name)
	}

	return nil
}

func (r *scriptRunner) answer(args []string) error {
	if len(args) == 0 {
		return errors.New("expected table, image or cancel")
	}
	switch args[0] {
	case "table":
		if err := wantArgs(args[1:], 2); err != nil {
			return err
		}
		size, err := tableSize(args[1:])
		if err != nil {
			return err
		}
		return r.prompter.queueTable(size)
	case "image":
		if err := wantArgs(args[1:], 1); err != nil {
			return err
		}
		return r.prompter.queueImage(args[1])
	case "cancel":
		r.prompter.queueCancel()
		return nil
	}
	return errors.Errorf("unknown answer %q", args[0])
}

func (r *scriptRunner) surface() (*richtext.Surface, error) {
	s := r.editor.Surface()
	if s == nil {
		return nil, errors.New("the editor is in raw mode")
	}
	return s, nil
}

func (r *scriptRunner) println(s string) error {
	_, err := fmt.Fprintln(r.out, s)
	return errors.WithStack(err)
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return errors.Errorf("expected %d arguments, got %d", n, len(args))
	}
	return nil
}

func atois(args []string) ([]int, error) {
	result := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, errors.Errorf("%q is not a number", a)
		}
		result = append(result, n)
	}
	return result, nil
}

func tableSize(args []string) (editor.TableSize, error) {
	n, err := atois(args)
	if err != nil {
		return editor.TableSize{}, err
	}
	return editor.TableSize{Rows: n[0], Cols: n[1]}, nil
}

// execAsker runs a command with the prompt on stdin and answers with what it
// prints.
type execAsker struct {
	argv []string
}

func (a *execAsker) Ask(ctx context.Context, prompt string) (string, error) {
	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, a.argv[0], a.argv[1:]...)
	c.Stdin = strings.NewReader(prompt)
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		return "", errors.Wrapf(err, "asker failed: %s", strings.TrimSpace(stderr.String()))
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}
