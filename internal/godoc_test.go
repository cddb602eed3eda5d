package internal_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// undocumented lists exported top-level declarations in file whose doc comment
// is missing or does not open with the declared name.
func undocumented(t *testing.T, fset *token.FileSet, file *ast.File) []string {
	t.Helper()
	var out []string
	check := func(name string, doc *ast.CommentGroup, pos token.Pos) {
		if !ast.IsExported(name) {
			return
		}
		opening := regexp.MustCompile(`^(A |An |The )?` + regexp.QuoteMeta(name) + `\b`)
		if doc == nil || !opening.MatchString(doc.Text()) {
			out = append(out, fset.Position(pos).String()+" "+name)
		}
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			check(d.Name.Name, d.Doc, d.Pos())
		case *ast.GenDecl:
			if d.Lparen.IsValid() || len(d.Specs) != 1 {
				continue
			}
			switch s := d.Specs[0].(type) {
			case *ast.TypeSpec:
				check(s.Name.Name, d.Doc, d.Pos())
			case *ast.ValueSpec:
				check(s.Names[0].Name, d.Doc, d.Pos())
			}
		}
	}
	return out
}

func TestExportedDeclarationsAreDocumented(t *testing.T) {
	fset := token.NewFileSet()
	var missing []string
	var files int

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return err
		}
		files++
		missing = append(missing, undocumented(t, fset, file)...)
		return nil
	})
	require.NoError(t, err)
	require.NotZero(t, files)

	assert.Empty(t, missing, "exported declarations need a comment that starts with their name")
}

func TestUndocumented_FlagsMissingAndMisnamedComments(t *testing.T) {
	src := `package p

// Good returns one.
func Good() int { return 1 }

func Bare() {}

// something else entirely.
func Misnamed() {}

// A Widget is documented.
type Widget struct{}

func (Widget) String() string { return "" }

func private() {}
`
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	require.NoError(t, err)

	got := undocumented(t, fset, file)
	require.Len(t, got, 3)
	assert.Contains(t, got[0], "Bare")
	assert.Contains(t, got[1], "Misnamed")
	assert.Contains(t, got[2], "String")
}
