// Package console is the terminal side of an authoring session.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"

	"prdapi/internal/model"
	"prdapi/internal/workflow"
)

const rule = "────────────────────────────────────────────────────────────"

type line struct {
	text string
	err  error
}

// Console reads answers line by line from in and writes everything else to out.
type Console struct {
	out io.Writer
	in  io.Reader

	once  sync.Once
	lines chan line

	title, info, success, warn, fail, prompt, dim *color.Color
}

// New builds a Console. Colors are dropped when noColor is set or out is not a terminal.
func New(in io.Reader, out io.Writer, noColor bool) *Console {
	c := &Console{
		in:      in,
		out:     out,
		title:   color.New(color.FgCyan, color.Bold),
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
		prompt:  color.New(color.FgGreen, color.Bold),
		dim:     color.New(color.Faint),
	}
	if noColor {
		for _, col := range []*color.Color{c.title, c.info, c.success, c.warn, c.fail, c.prompt, c.dim} {
			col.DisableColor()
		}
	}
	return c
}

// Banner prints the greeting shown when a session starts.
func (c *Console) Banner(server string) {
	fmt.Fprintln(c.out, c.title.Sprint("PM Agent"))
	fmt.Fprintf(c.out, "Document service: %s\n\n", c.dim.Sprint(server))
}

func (c *Console) Notify(level workflow.Level, msg string) {
	switch level {
	case workflow.LevelSuccess:
		fmt.Fprintln(c.out, c.success.Sprint(msg))
	case workflow.LevelWarn:
		fmt.Fprintln(c.out, c.warn.Sprint(msg))
	case workflow.LevelError:
		fmt.Fprintln(c.out, c.fail.Sprint("Error: ")+msg)
	default:
		fmt.Fprintln(c.out, c.info.Sprint(msg))
	}
}

func (c *Console) Progress(stage string) {
	fmt.Fprintf(c.out, "  %s %s\n", c.dim.Sprint("->"), strings.ReplaceAll(stage, "_", " "))
}

func (c *Console) ShowMatches(matches []model.SearchResult) {
	for i, m := range matches {
		fmt.Fprintf(c.out, "%2d. %s %s  %s\n", i+1, c.title.Sprint(m.ProductName), c.dim.Sprintf("(%s)", m.ID), c.dim.Sprintf("score %.2f", m.Score))
		if m.Summary != "" {
			fmt.Fprintf(c.out, "    %s\n", m.Summary)
		}
	}
	fmt.Fprintln(c.out)
}

func (c *Console) ShowDocument(doc *model.Document) {
	fmt.Fprintln(c.out, c.dim.Sprint(rule))
	fmt.Fprintf(c.out, "%s %s\n", c.title.Sprint(doc.ProductName), c.dim.Sprintf("(%s)", doc.ID))
	if doc.Author != "" || doc.Version != "" {
		fmt.Fprintf(c.out, "%s\n", c.dim.Sprintf("author %s, version %s, created %s", doc.Author, doc.Version, doc.CreatedAt.Format("2006-01-02")))
	}
	fmt.Fprintln(c.out, c.dim.Sprint(rule))
	fmt.Fprintln(c.out, strings.TrimRight(doc.Content, "\n"))
	fmt.Fprintln(c.out, c.dim.Sprint(rule))
}

func (c *Console) ShowDraft(draft string) {
	fmt.Fprintln(c.out, c.title.Sprint("Draft PRD"))
	fmt.Fprintln(c.out, c.dim.Sprint(rule))
	fmt.Fprintln(c.out, strings.TrimRight(draft, "\n"))
	fmt.Fprintln(c.out, c.dim.Sprint(rule))
}

func (c *Console) ShowResult(res *model.StoreResult) {
	fmt.Fprintln(c.out, c.success.Sprintf("Saved %s", res.ProductName))
	fmt.Fprintf(c.out, "  id:       %s\n", res.ID)
	fmt.Fprintf(c.out, "  markdown: %s\n", res.MarkdownPath)
	fmt.Fprintf(c.out, "  html:     %s\n", res.HTMLPath)
	if res.HTMLURL != "" {
		fmt.Fprintf(c.out, "  url:      %s\n", res.HTMLURL)
	}
}

// Choose prints numbered options and re-asks until a valid number is entered.
func (c *Console) Choose(ctx context.Context, question string, options []string) (int, error) {
	fmt.Fprintln(c.out, c.title.Sprint(question))
	for i, o := range options {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, o)
	}
	for {
		fmt.Fprint(c.out, c.prompt.Sprintf("Choose 1-%d: ", len(options)))
		text, err := c.readLine(ctx)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintln(c.out, c.warn.Sprintf("Please enter a number between 1 and %d.", len(options)))
	}
}

func (c *Console) Ask(ctx context.Context, question string) (string, error) {
	fmt.Fprint(c.out, c.prompt.Sprint(question+" "))
	return c.readLine(ctx)
}

// readLine returns the next input line or ctx's error, whichever comes first.
// A single reader goroutine feeds lines so an abandoned read is picked up by the next call.
func (c *Console) readLine(ctx context.Context) (string, error) {
	c.once.Do(func() {
		c.lines = make(chan line)
		go func() {
			sc := bufio.NewScanner(c.in)
			for sc.Scan() {
				c.lines <- line{text: sc.Text()}
			}
			err := sc.Err()
			if err == nil {
				err = io.EOF
			}
			for {
				c.lines <- line{err: err}
			}
		}()
	})

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", ctx.Err()
	case l := <-c.lines:
		return l.text, l.err
	}
}
