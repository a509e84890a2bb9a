package glob

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, name := range []string{
		"/work/a.go",
		"/work/b.go",
		"/work/c.txt",
		"/work/.hidden.go",
		"/work/sub/d.go",
		"/work/sub/.e.go",
		"/work/x[1].txt",
		"/other/z.go",
	} {
		require.NoError(t, afero.WriteFile(fs, name, []byte(name), 0644))
	}
	return fs
}

func TestExpand(t *testing.T) {
	cases := map[string]struct {
		pattern string
		want    []string
	}{
		"star":               {pattern: "*.go", want: []string{"a.go", "b.go"}},
		"question":           {pattern: "?.txt", want: []string{"c.txt"}},
		"class":              {pattern: "[ab].go", want: []string{"a.go", "b.go"}},
		"negated class":      {pattern: "[^a].go", want: []string{"b.go"}},
		"no match":           {pattern: "*.rs", want: nil},
		"dot pattern":        {pattern: ".*.go", want: []string{".hidden.go"}},
		"subdirectory":       {pattern: "sub/*.go", want: []string{"sub/d.go"}},
		"wildcard directory": {pattern: "*/*.go", want: []string{"sub/d.go"}},
		"dot slash":          {pattern: "./*.txt", want: []string{"./c.txt", "./x[1].txt"}},
		"parent":             {pattern: "../other/*", want: []string{"../other/z.go"}},
		"absolute":           {pattern: "/other/*.go", want: []string{"/other/z.go"}},
		"escaped":            {pattern: `x\[1\].*`, want: []string{"x[1].txt"}},
	}

	fs := testFs(t)
	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, err := Expand(fs, "/work", filepath.FromSlash(tc.pattern))
			require.NoError(t, err)

			var want []string
			for _, w := range tc.want {
				want = append(want, filepath.FromSlash(w))
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestExpand_badPattern(t *testing.T) {
	_, err := Expand(testFs(t), "/work", "[a-")
	assert.ErrorIs(t, err, filepath.ErrBadPattern)
}

func TestExpand_missingDir(t *testing.T) {
	got, err := Expand(testFs(t), "/does/not/exist", "*")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func ExampleHasMeta() {
	fmt.Println(HasMeta("*.go"))
	fmt.Println(HasMeta("main.go"))
	fmt.Println(HasMeta(`\*.go`))

	// Output: true
	// false
	// false
}

func ExampleQuoteMeta() {
	fmt.Println(QuoteMeta("x[1]*?.txt"))

	// Output: x\[1]\*\?.txt
}
