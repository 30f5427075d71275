package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/nickyhof/lildb"
	"github.com/nickyhof/lildb/db"
	"github.com/nickyhof/lildb/stmt"
)

const (
	colPrompt  = "\033[36m"
	colError   = "\033[31m"
	colSuccess = "\033[32m"
	colReset   = "\033[0m"
	colBold    = "\033[1m"

	historyCap = 1000
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the shell state
type CLI struct {
	database    *lildb.DB
	history     []string
	historyFile string
	path        string
}

func main() {
	path := flag.String("db", "", "Database file (empty for in-memory; .duckdb selects DuckDB)")
	engineName := flag.String("engine", "", "Force an engine: sqlite or duckdb")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	debug := flag.Bool("dbg", false, "Debug logging")
	flag.Parse()

	printBanner()

	var opts []lildb.Option
	switch *engineName {
	case "":
	case "sqlite":
		opts = append(opts, lildb.Dialect(db.SQLite()))
	case "duckdb":
		opts = append(opts, lildb.Dialect(db.DuckDB()))
	default:
		fail("unknown engine %q", *engineName)
	}
	if *debug {
		opts = append(opts, lildb.Logger(lgr.New(lgr.Debug, lgr.Msec)))
	}

	if *path == "" {
		okf("Using in-memory database")
	} else {
		okf("Using database file: %s", *path)
	}

	database, err := lildb.Open(*path, opts...)
	if err != nil {
		fail("%v", err)
	}
	defer database.Close()

	cli := &CLI{database: database, path: *path}
	if home, err := os.UserHomeDir(); err == nil {
		cli.historyFile = filepath.Join(home, ".lildb_history")
	}
	cli.loadHistory()

	if *sqlFile != "" {
		if err := cli.importFile(*sqlFile); err != nil {
			fail("importing file: %v", err)
		}
		return
	}

	cli.run()
}

func printBanner() {
	fmt.Println()
	fmt.Printf("%s%slildb %s%s\n", colBold, colPrompt, Version, colReset)
	fmt.Println("small embedded database shell")
	fmt.Println("Type .help for commands, .quit to exit")
	fmt.Println()
}

func okf(format string, args ...any) {
	fmt.Printf(colSuccess+format+colReset+"\n", args...)
}

func errf(format string, args ...any) {
	fmt.Printf(colError+"✗ "+format+colReset+"\n", args...)
}

func fail(format string, args ...any) {
	errf(format, args...)
	os.Exit(1)
}

func (cli *CLI) run() {
	in := bufio.NewScanner(os.Stdin)
	var pending []string

	for {
		fmt.Print(cli.prompt(len(pending) > 0))
		if !in.Scan() {
			okf("\nGoodbye!")
			return
		}
		line := strings.TrimRight(in.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// Dot commands apply only outside a buffered statement
		if len(pending) == 0 && strings.HasPrefix(line, ".") {
			cli.handleCommand(line)
			continue
		}

		// Statements buffer up until a trailing semicolon
		pending = append(pending, line)
		joined := strings.TrimSpace(strings.Join(pending, " "))
		if !strings.HasSuffix(joined, ";") {
			continue
		}
		pending = nil

		text := strings.TrimSpace(strings.TrimSuffix(joined, ";"))
		if text == "" {
			continue
		}
		cli.remember(text + ";")
		cli.execute(text)
	}
}

// execute runs one SQL statement through the engine and prints the
// outcome.
func (cli *CLI) execute(text string) {
	if isQuery(text) {
		rows, err := cli.database.Engine().Query("", "query", stmt.Stmt{Text: text})
		if err != nil {
			errf("Error: %v", err)
			return
		}
		defer rows.Close()
		if err := printRows(rows); err != nil {
			errf("Error: %v", err)
		}
		return
	}

	affected, err := cli.database.Engine().Exec("", "exec", stmt.Stmt{Text: text})
	if err != nil {
		errf("Error: %v", err)
		return
	}
	okf("✓ OK (%d rows affected)", affected)
}

// isQuery reports whether a statement returns rows.
func isQuery(text string) bool {
	head := strings.ToUpper(strings.Fields(strings.TrimSpace(text))[0])
	switch head {
	case "SELECT", "WITH", "PRAGMA", "SHOW", "DESCRIBE", "EXPLAIN":
		return true
	}
	return false
}

func printRows(rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(columns, " | "))

	count := 0
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(cells, " | "))
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	okf("✓ %d rows", count)
	return nil
}

func (cli *CLI) prompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", colPrompt, colReset)
	}
	dbPart := ""
	if cli.path != "" {
		dbPart = " (" + filepath.Base(cli.path) + ")"
	}
	return fmt.Sprintf("%slildb%s>%s ", colPrompt, dbPart, colReset)
}

func (cli *CLI) handleCommand(input string) {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return
	}
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		okf("Goodbye!")
		cli.saveHistory()
		_ = cli.database.Close()
		os.Exit(0)

	case ".help", ".h", ".?":
		printHelp()

	case ".tables":
		// Ask the engine directly so tables created with raw SQL in
		// this session show up too.
		names, err := cli.database.Engine().Tables()
		if err != nil {
			errf("Error: %v", err)
			return
		}
		for _, name := range names {
			fmt.Println("  " + name)
		}

	case ".schema":
		if arg == "" {
			errf("Usage: .schema <table>")
			return
		}
		cli.showSchema(arg)

	case ".snapshot":
		if arg == "" {
			errf("Usage: .snapshot <file>")
			return
		}
		cli.runRemote("snapshot", func() error { return cli.database.Snapshot(arg) })

	case ".push":
		if arg == "" {
			errf("Usage: .push <dest>")
			return
		}
		cli.runRemote("push", func() error { return cli.database.Push(context.Background(), arg) })

	case ".import":
		if arg == "" {
			errf("Usage: .import <file.sql>")
			return
		}
		if err := cli.importFile(arg); err != nil {
			errf("Error: %v", err)
		}

	case ".history":
		cli.printHistory()

	case ".clear", ".cls":
		fmt.Print("\033[H\033[2J")

	case ".version":
		fmt.Printf("lildb version %s\n", Version)

	default:
		errf("Unknown command: %s (type .help for commands)", parts[0])
	}
}

func printHelp() {
	fmt.Println()
	fmt.Printf("%s%sSpecial Commands:%s\n", colBold, colPrompt, colReset)
	fmt.Println("  .help, .h        Show this help message")
	fmt.Println("  .quit, .exit     Exit the shell")
	fmt.Println("  .tables          List tables")
	fmt.Println("  .schema <table>  Show the columns and key of a table")
	fmt.Println("  .snapshot <file> Write a consistent copy to a file")
	fmt.Println("  .push <dest>     Push a snapshot to s3://, file://, or a path")
	fmt.Println("  .import <file>   Execute SQL statements from a file")
	fmt.Println("  .history         Show command history")
	fmt.Println("  .clear           Clear the screen")
	fmt.Println("  .version         Show version info")
	fmt.Println()
	fmt.Printf("%s%sSQL Commands:%s\n", colBold, colPrompt, colReset)
	fmt.Println("  CREATE TABLE <table> (<column> <type>, ...);")
	fmt.Println("  DROP TABLE <table>;")
	fmt.Println("  INSERT INTO <table> (<cols>) VALUES (<vals>);")
	fmt.Println("  SELECT <cols> FROM <table> [WHERE ...] [ORDER BY ...] [LIMIT n];")
	fmt.Println("  UPDATE <table> SET <col>=<val> [WHERE ...];")
	fmt.Println("  DELETE FROM <table> [WHERE ...];")
	fmt.Println()
}

func (cli *CLI) showSchema(name string) {
	columns, key, err := cli.database.Engine().Columns(name)
	if err != nil {
		errf("Error: %v", err)
		return
	}
	if len(columns) == 0 {
		errf("No such table: %s", name)
		return
	}
	for _, column := range columns {
		fmt.Println("  " + column)
	}
	if len(key) > 0 {
		fmt.Printf("  key: %s\n", strings.Join(key, ", "))
	}
}

func (cli *CLI) runRemote(what string, fn func() error) {
	if err := fn(); err != nil {
		errf("%s failed: %v", what, err)
		return
	}
	okf("✓ %s complete", what)
}

func (cli *CLI) remember(command string) {
	if n := len(cli.history); n > 0 && cli.history[n-1] == command {
		return
	}
	cli.history = append(cli.history, command)
	if len(cli.history) > historyCap {
		cli.history = cli.history[len(cli.history)-historyCap:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Println("No command history")
		return
	}
	tail := cli.history
	if len(tail) > 20 {
		tail = tail[len(tail)-20:]
	}
	base := len(cli.history) - len(tail)
	for i, command := range tail {
		fmt.Printf("  %3d  %s\n", base+i+1, command)
	}
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}
	data, err := os.ReadFile(cli.historyFile)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			cli.history = append(cli.history, line)
		}
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" || len(cli.history) == 0 {
		return
	}
	tail := cli.history
	if len(tail) > historyCap {
		tail = tail[len(tail)-historyCap:]
	}
	_ = os.WriteFile(cli.historyFile, []byte(strings.Join(tail, "\n")+"\n"), 0o600)
}

// importFile reads and executes SQL statements from a file
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	succeeded, failed := 0, 0
	for i, text := range splitStatements(string(data)) {
		if cli.runImported(i+1, text) {
			succeeded++
		} else {
			failed++
		}
	}

	fmt.Println()
	okf("✓ Import complete: %d succeeded, %d failed", succeeded, failed)
	return nil
}

func (cli *CLI) runImported(n int, text string) bool {
	report := func(err error) bool {
		if err != nil {
			errf("[%d] %s", n, truncate(text, 50))
			fmt.Printf("      Error: %v\n", err)
			return false
		}
		return true
	}

	if isQuery(text) {
		rows, err := cli.database.Engine().Query("", "query", stmt.Stmt{Text: text})
		if err != nil {
			return report(err)
		}
		count := 0
		for rows.Next() {
			count++
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return report(err)
		}
		okf("✓ [%d] %s (%d rows)", n, truncate(text, 50), count)
		return true
	}

	affected, err := cli.database.Engine().Exec("", "exec", stmt.Stmt{Text: text})
	if err != nil {
		return report(err)
	}
	okf("✓ [%d] %s (%d affected)", n, truncate(text, 50), affected)
	return true
}

// splitStatements splits SQL text on semicolons, honoring quoted
// strings and stripping -- line comments.
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	var quote byte

	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			statements = append(statements, text)
		}
		current.Reset()
	}

	for i := 0; i < len(content); i++ {
		ch := content[i]
		switch {
		case quote != 0:
			if ch == quote && content[i-1] != '\\' {
				quote = 0
			}
			current.WriteByte(ch)
		case ch == '\'' || ch == '"':
			quote = ch
			current.WriteByte(ch)
		case ch == '-' && i+1 < len(content) && content[i+1] == '-':
			for i < len(content) && content[i] != '\n' {
				i++
			}
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return statements
}

// truncate shortens a statement for one-line reporting.
func truncate(s string, max int) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		return r
	}, s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
