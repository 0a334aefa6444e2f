package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/engine"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/sql/executor"
)

// statementComplete reports a terminating ';' outside single quotes.
func statementComplete(buf string) bool {
	inQuote := false
	escaped := false

	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '\'' {
			inQuote = !inQuote
			continue
		}
		if r == ';' && !inQuote {
			return true
		}
	}
	return false
}

func printResult(res *executor.Result) {
	if len(res.Columns) == 0 {
		fmt.Println(res.Message)
		return
	}

	cols := res.Columns

	// column widths from header and data
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	cells := make([][]string, len(res.Rows))
	for r, row := range res.Rows {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			s := "NULL"
			if v := row[c]; v != nil {
				s = fmt.Sprintf("%v", v)
			}
			cells[r][i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	printRow := func(values []string) {
		for i := range cols {
			if i > 0 {
				fmt.Print(" | ")
			}
			fmt.Print(padRight(values[i], widths[i]))
		}
		fmt.Println()
	}

	printRow(cols)
	for i := range cols {
		if i > 0 {
			fmt.Print("-+-")
		}
		fmt.Print(strings.Repeat("-", widths[i]))
	}
	fmt.Println()
	for _, row := range cells {
		printRow(row)
	}

	fmt.Printf("(%d rows)\n", res.RowCount)
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func printTables(db *engine.Database) {
	db.Lock()
	names := db.ListTables()
	db.Unlock()
	if len(names) == 0 {
		fmt.Println("(no tables)")
		return
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func printSchema(db *engine.Database, name string) {
	db.Lock()
	schema, err := db.Describe(name)
	db.Unlock()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for _, col := range schema.Cols {
		fmt.Printf("  %s\n", col.String())
	}
}

func printStats(db *engine.Database) {
	db.Lock()
	stats := db.Stats()
	db.Unlock()
	fmt.Printf("database: %s\n", stats.Name)
	for _, ts := range stats.Tables {
		fmt.Printf("  %s: %d row(s), %d index(es)\n", ts.Name, ts.Rows, ts.Indexes)
	}
}

func runMeta(db *engine.Database, line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".exit", ".quit":
		return true
	case ".tables":
		printTables(db)
	case ".schema":
		if len(fields) < 2 {
			fmt.Println("usage: .schema <table>")
			break
		}
		printSchema(db, fields[1])
	case ".stats":
		printStats(db)
	case ".help":
		fmt.Println(`meta commands:
  .tables            list tables
  .schema <table>    show a table's columns
  .stats             row and index counts per table
  .help              show help
  .exit              quit

sql:
  end statement with ';'
  multiline is supported (shell waits for ';')`)
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
	}
	return false
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".reldb_history"
	}
	return filepath.Join(home, ".reldb_history")
}

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to yaml config (empty = defaults)")
		dbFile     = flag.String("db", "", "database file path (overrides config)")
		histPath   = flag.String("history", defaultHistoryPath(), "history file path")
		oneShotSQL = flag.String("c", "", "execute one statement and exit")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	path := *dbFile
	if path == "" {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "data dir: %v\n", err)
			os.Exit(1)
		}
		path = filepath.Join(cfg.Storage.DataDir, cfg.Storage.Database+".json")
	}

	db, err := engine.Open(path, cfg.Storage.Database, cfg.Storage.BTreeDegree)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	ex := executor.New(db)

	if strings.TrimSpace(*oneShotSQL) != "" {
		res, err := ex.Execute(*oneShotSQL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		printResult(res)
		return
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "reldb> ",
		HistoryFile:     *histPath,
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	var buf strings.Builder

	fmt.Printf("reldb shell: database %q at %s\n", db.Name, db.Path())
	fmt.Println("type .help for help")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			// Ctrl+C clears the current buffer
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt("reldb> ")
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil {
			// EOF
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if runMeta(db, line) {
				return
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)

		if !statementComplete(buf.String()) {
			rl.SetPrompt("  ...> ")
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt("reldb> ")

		res, err := ex.Execute(stmt)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printResult(res)
	}
}
