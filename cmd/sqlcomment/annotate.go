package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewAnnotateCommand creates the annotate command.
func NewAnnotateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "annotate [files...]",
		Short: "Print statements with the comment prepended",
		Long: `Reads SQL from the named files, or from stdin when none are given, and prints
each statement with the comment block in front of it. A statement ends at a
line whose last character is a semicolon.`,
		Example: `  echo "SELECT 1;" | sqlcomment annotate -c "nightly report"
  sqlcomment annotate -c "migration 42" --newline migrations/042.sql`,
		RunE: runAnnotate,
	}
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	cfg := getConfig(cmd.Context())
	sc, err := cfg.SQLComment()
	if err != nil {
		return err
	}
	a := sc.Annotator()
	out := cmd.OutOrStdout()

	emit := func(r io.Reader) error {
		return splitStatements(r, func(stmt string) error {
			_, err := fmt.Fprintln(out, a.Prepend(cfg.Comment, stmt))
			return err
		})
	}

	if len(args) == 0 {
		return emit(cmd.InOrStdin())
	}
	for _, name := range args {
		if err := annotateFile(name, emit); err != nil {
			return err
		}
	}
	return nil
}

func annotateFile(name string, emit func(io.Reader) error) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := emit(f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// splitStatements calls fn with each statement in r. Statements are runs of
// lines ending in a line whose trimmed text ends with ';'. Blank lines
// between statements are dropped; a trailing statement with no semicolon is
// still passed on.
func splitStatements(r io.Reader, fn func(string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var lines []string
	flush := func() error {
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		lines = lines[:0]
		if stmt == "" {
			return nil
		}
		return fn(stmt)
	}
	for sc.Scan() {
		line := sc.Text()
		lines = append(lines, line)
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return flush()
}
