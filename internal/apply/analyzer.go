package apply

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations

	"sheetsql/internal/core"
)

var implicitCommitPrefixes = []string{
	"CREATE", "DROP", "ALTER", "RENAME", "TRUNCATE",
}

// StatementAnalysis contains the results of analyzing a SQL statement.
type StatementAnalysis struct {
	Kind              core.StatementKind
	IsDestructive     bool
	DestructiveReason string
	IsTransactionSafe bool
	TxUnsafeReason    string
}

// StatementAnalyzer uses TiDB's AST parser for reliable SQL analysis.
type StatementAnalyzer struct {
	parser *parser.Parser
}

// NewStatementAnalyzer creates a new AST-based statement analyzer.
func NewStatementAnalyzer() *StatementAnalyzer {
	return &StatementAnalyzer{
		parser: parser.New(),
	}
}

// Classify returns the statement kind of sql.
func (a *StatementAnalyzer) Classify(sql string) core.StatementKind {
	return a.AnalyzeStatement(sql).Kind
}

// AnalyzeStatement parses a single SQL statement. Text the parser rejects is
// classified from its leading keyword. Named @params parse as user variables.
func (a *StatementAnalyzer) AnalyzeStatement(sql string) *StatementAnalysis {
	stmtNodes, _, err := a.parser.Parse(sql, "", "")
	if err != nil || len(stmtNodes) == 0 {
		analysis := &StatementAnalysis{Kind: core.StatementOther, IsTransactionSafe: true}
		analyzeOtherStatement(analysis, sql)
		return analysis
	}
	return analyzeNode(stmtNodes[0], sql)
}

func analyzeNode(node ast.StmtNode, originalSQL string) *StatementAnalysis {
	analysis := &StatementAnalysis{IsTransactionSafe: true}

	switch node.(type) {
	case *ast.InsertStmt:
		analysis.Kind = core.StatementInsert
	case *ast.UpdateStmt:
		analysis.Kind = core.StatementUpdate
	case *ast.DeleteStmt:
		analysis.Kind = core.StatementDelete
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DELETE will remove rows from the table"
	case *ast.SelectStmt, *ast.SetOprStmt, *ast.ShowStmt:
		analysis.Kind = core.StatementSelect
	case *ast.CreateTableStmt:
		analysis.Kind = core.StatementCreateTable
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "CREATE TABLE causes an implicit commit in MySQL"
	case *ast.DropTableStmt:
		analysis.Kind = core.StatementDDL
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DROP TABLE will permanently delete the table and all its data"
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "DROP TABLE causes an implicit commit in MySQL"
	case *ast.TruncateTableStmt:
		analysis.Kind = core.StatementDDL
		analysis.IsDestructive = true
		analysis.DestructiveReason = "TRUNCATE TABLE will delete all rows from the table"
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "TRUNCATE TABLE causes an implicit commit in MySQL"
	case ast.DDLNode:
		analysis.Kind = core.StatementDDL
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "DDL statement causes an implicit commit in MySQL"
	default:
		analysis.Kind = core.StatementOther
		analyzeOtherStatement(analysis, originalSQL)
	}
	return analysis
}

func analyzeOtherStatement(analysis *StatementAnalysis, originalSQL string) {
	upper := strings.ToUpper(strings.TrimSpace(originalSQL))
	switch {
	case strings.HasPrefix(upper, "INSERT") || strings.HasPrefix(upper, "REPLACE"):
		analysis.Kind = core.StatementInsert
		return
	case strings.HasPrefix(upper, "UPDATE"):
		analysis.Kind = core.StatementUpdate
		return
	case strings.HasPrefix(upper, "DELETE"):
		analysis.Kind = core.StatementDelete
		analysis.IsDestructive = true
		analysis.DestructiveReason = "DELETE will remove rows from the table"
		return
	case strings.HasPrefix(upper, "SELECT"):
		analysis.Kind = core.StatementSelect
		return
	}

	for _, keyword := range implicitCommitPrefixes {
		if strings.HasPrefix(upper, keyword+" ") {
			analysis.Kind = core.StatementDDL
			if strings.HasPrefix(upper, "CREATE TABLE") {
				analysis.Kind = core.StatementCreateTable
			}
			analysis.IsTransactionSafe = false
			analysis.TxUnsafeReason = fmt.Sprintf("%s statement causes an implicit commit in MySQL", keyword)
			return
		}
	}
}

// Warning is a preflight finding about a statement.
type Warning struct {
	Message string
	SQL     string
}

// Preflight lists destructive statements of a batch so callers can ask for
// confirmation before running it.
func (a *StatementAnalyzer) Preflight(statements []core.Statement) []Warning {
	var warnings []Warning
	for _, st := range statements {
		analysis := a.AnalyzeStatement(st.Text)
		if analysis.IsDestructive {
			warnings = append(warnings, Warning{Message: analysis.DestructiveReason, SQL: st.Text})
		}
	}
	return warnings
}

// SplitStatements splits a SQL script into statements. The TiDB parser finds
// the boundaries when it accepts the script; otherwise lines are accumulated
// until a trailing semicolon.
func (a *StatementAnalyzer) SplitStatements(content string) []string {
	var statements []string
	content = strings.TrimSpace(content)

	stmtNodes, _, err := a.parser.Parse(content, "", "")
	if err == nil && len(stmtNodes) > 0 {
		for _, node := range stmtNodes {
			if node == nil {
				continue
			}
			stmt := strings.TrimSuffix(strings.TrimSpace(node.Text()), ";")
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				statements = append(statements, stmt)
			}
		}
		if len(statements) > 0 {
			return statements
		}
	}

	var current strings.Builder
	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "--") || trimmed == "" {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(current.String()), ";")
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}
