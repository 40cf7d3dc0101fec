package query

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/cmisq/internal/model"
)

func execute(t *testing.T, e *Engine, stmt string) *Result {
	t.Helper()
	res, err := e.Execute(context.Background(), stmt, Page{})
	require.NoError(t, err, stmt)
	return res
}

func TestQueryCounts(t *testing.T) {
	f := newFixture(t)
	e := f.engine()

	tests := []struct {
		name string
		stmt string
		want int
	}{
		{"no where clause", "SELECT cmis:objectId, cmis:name FROM File", 3},
		{"not equal", "SELECT cmis:objectId, cmis:name FROM File WHERE dc:title <> 'testfile1_Title'", 2},
		{"equal", "SELECT cmis:objectId, dc:description FROM File WHERE dc:title = 'testfile1_Title'", 1},
		{"conjunction", "SELECT cmis:objectId FROM File WHERE dc:title = 'testfile1_Title' AND dc:description <> 'argh' AND dc:coverage <> 'zzzzz'", 1},
		{"in", "SELECT cmis:objectId FROM File WHERE dc:title IN ('testfile1_Title', 'xyz')", 1},
		{"not in", "SELECT cmis:objectId FROM File WHERE dc:title NOT IN ('testfile1_Title', 'xyz')", 2},
		{"not equal on absent value", "SELECT cmis:objectId FROM File WHERE dc:description <> 'argh'", 1},
		{"not in on absent value", "SELECT cmis:objectId FROM File WHERE dc:description NOT IN ('argh')", 1},
		{"documents include subtypes", "SELECT * FROM cmis:document", 4},
		{"folders exclude root", "SELECT * FROM cmis:folder", 4},
		{"or", "SELECT * FROM cmis:document WHERE cmis:name = 'testfile1_Title' OR cmis:name = 'testfile3_Title'", 2},
		{"parenthesized", "SELECT * FROM File WHERE (dc:title = 'testfile1_Title' OR dc:title = 'testfile2_Title') AND dc:coverage IS NULL", 1},
		{"is not null", "SELECT * FROM File WHERE dc:description IS NOT NULL", 1},
		{"empty multi-valued is null", "SELECT * FROM File WHERE dc:contributors IS NULL", 2},
		{"like prefix", "SELECT * FROM cmis:document WHERE cmis:name LIKE 'testfile%'", 4},
		{"like single character", "SELECT * FROM cmis:document WHERE cmis:name LIKE 'testfile_\\_Title'", 4},
		{"not like", "SELECT * FROM cmis:folder WHERE cmis:name NOT LIKE '%1%'", 3},
		{"id property binds string literal", "SELECT * FROM File WHERE cmis:objectId = 'file2'", 1},
		{"timestamp instant across zones", "SELECT * FROM File WHERE cmis:creationDate = TIMESTAMP '2010-01-01T08:00:00Z'", 1},
		{"timestamp range", "SELECT * FROM File WHERE cmis:creationDate >= TIMESTAMP '2010-01-02T00:00:00.000+00:00'", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, e, tt.stmt)
			assert.Equal(t, tt.want, res.TotalCount)
			assert.Len(t, res.Rows, tt.want)
		})
	}
}

func TestQueryProjectsColumns(t *testing.T) {
	f := newFixture(t)
	res := execute(t, f.engine(), "SELECT cmis:objectId, dc:description AS d, cmis:name n FROM File WHERE dc:title = 'testfile1_Title'")
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.Equal(t, []string{"cmis:objectId", "d", "n"}, row.Keys())
	assert.Equal(t, "file1", text(t, row, "cmis:objectId"))
	assert.Equal(t, "testfile1_description", text(t, row, "d"))
	assert.Equal(t, "testfile1_Title", text(t, row, "n"))
	assert.Equal(t, []string{"file1"}, row.ObjectIDs)
}

func TestQuerySelectStar(t *testing.T) {
	f := newFixture(t)
	td, err := f.reg.ResolveType("File")
	require.NoError(t, err)

	res := execute(t, f.engine(), "SELECT * FROM File WHERE cmis:objectId = 'file2'")
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	require.Len(t, row.Columns, len(f.reg.AllProperties(td)))
	for i, d := range f.reg.AllProperties(td) {
		assert.Equal(t, d.QueryName, row.Columns[i].Key)
	}
	desc, ok := row.Get("dc:description")
	assert.True(t, ok)
	assert.True(t, desc.IsAbsent())
}

func TestQueryMultiValued(t *testing.T) {
	f := newFixture(t)
	e := f.engine()

	tests := []struct {
		where string
		want  int
	}{
		{"'pete' = ANY dc:contributors", 1},
		{"'bob' = ANY dc:contributors", 1},
		{"'john' = ANY dc:contributors", 0},
		{"ANY dc:contributors IN ('pete')", 1},
		{"ANY dc:contributors IN ('pete', 'bob')", 1},
		{"ANY dc:contributors NOT IN ('pete')", 1},
		{"ANY dc:contributors NOT IN ('john')", 1},
		{"ANY dc:contributors NOT IN ('pete', 'bob')", 0},
	}
	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			res := execute(t, e, "SELECT cmis:name FROM File WHERE "+tt.where)
			assert.Equal(t, tt.want, res.TotalCount)
			if tt.want == 1 {
				assert.Equal(t, []string{"testfile1_Title"}, names(t, res))
			}
		})
	}
}

func TestQueryOrderBy(t *testing.T) {
	f := newFixture(t)
	e := f.engine()

	asc := execute(t, e, "SELECT cmis:objectId, cmis:name FROM File ORDER BY cmis:name")
	assert.Equal(t, []string{"testfile1_Title", "testfile2_Title", "testfile4_Title"}, names(t, asc))

	desc := execute(t, e, "SELECT cmis:objectId, cmis:name FROM File ORDER BY cmis:name DESC")
	assert.Equal(t, []string{"testfile4_Title", "testfile2_Title", "testfile1_Title"}, names(t, desc))
	assert.Equal(t, names(t, asc)[0], names(t, desc)[len(desc.Rows)-1])

	// absent values sort first
	byDesc := execute(t, e, "SELECT cmis:name FROM File ORDER BY dc:description DESC, cmis:name")
	assert.Equal(t, []string{"testfile1_Title", "testfile2_Title", "testfile4_Title"}, names(t, byDesc))

	byAlias := execute(t, e, "SELECT cmis:name AS title FROM File ORDER BY title DESC")
	require.Len(t, byAlias.Rows, 3)
	assert.Equal(t, "testfile4_Title", text(t, byAlias.Rows[0], "title"))

	byDate := execute(t, e, "SELECT cmis:name FROM File ORDER BY cmis:creationDate DESC")
	assert.Equal(t, []string{"testfile4_Title", "testfile2_Title", "testfile1_Title"}, names(t, byDate))
}

func TestQueryPaging(t *testing.T) {
	f := newFixture(t)
	e := f.engine()
	stmt := "SELECT cmis:name FROM File ORDER BY cmis:name"

	res, err := e.Execute(context.Background(), stmt, Page{Skip: 1, MaxItems: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"testfile2_Title"}, names(t, res))
	assert.Equal(t, 3, res.TotalCount)
	assert.True(t, res.HasMoreItems)

	res, err = e.Execute(context.Background(), stmt, Page{Skip: 2, MaxItems: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"testfile4_Title"}, names(t, res))
	assert.False(t, res.HasMoreItems)

	res, err = e.Execute(context.Background(), stmt, Page{Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, 3, res.TotalCount)

	res, err = e.Execute(context.Background(), stmt, Page{Skip: 1, MaxItems: math.MaxInt})
	require.NoError(t, err)
	assert.Equal(t, []string{"testfile2_Title", "testfile4_Title"}, names(t, res))
	assert.False(t, res.HasMoreItems)

	_, err = e.Execute(context.Background(), stmt, Page{Skip: -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestQueryInFolder(t *testing.T) {
	f := newFixture(t)
	e := f.engine()

	res := execute(t, e, "SELECT cmis:name FROM File WHERE IN_FOLDER('f1') ORDER BY cmis:name")
	assert.Equal(t, []string{"testfile1_Title", "testfile2_Title"}, names(t, res))

	res = execute(t, e, "SELECT cmis:name FROM File WHERE IN_FOLDER('nosuchid')")
	assert.Zero(t, res.TotalCount)

	// the root has no parent, and an empty id names no folder
	res = execute(t, e, "SELECT cmis:objectId FROM cmis:folder WHERE IN_FOLDER('')")
	assert.Zero(t, res.TotalCount)
}

func TestQueryInTree(t *testing.T) {
	f := newFixture(t)
	e := f.engine()

	res := execute(t, e, "SELECT cmis:name FROM File WHERE IN_TREE('f2')")
	assert.Equal(t, []string{"testfile4_Title"}, names(t, res))

	res = execute(t, e, "SELECT cmis:name FROM cmis:document WHERE IN_TREE('root') ORDER BY cmis:name")
	assert.Equal(t, 4, res.TotalCount)

	res = execute(t, e, "SELECT cmis:name FROM cmis:folder WHERE IN_TREE('f2') ORDER BY cmis:name")
	assert.Equal(t, []string{"testfolder3_Title", "testfolder4_Title"}, names(t, res))

	res = execute(t, e, "SELECT cmis:name FROM File WHERE IN_TREE('nosuchid')")
	assert.Zero(t, res.TotalCount)
}

func TestQueryContains(t *testing.T) {
	f := newFixture(t)
	idx := fakeIndex{"testfile1_Title": {"file1": 1.5}, "gee": {"file1": 0.5, "file3": 2}}
	e := f.engine(WithIndexer(idx))

	res := execute(t, e, "SELECT cmis:name FROM File WHERE CONTAINS('testfile1_Title')")
	assert.Equal(t, []string{"testfile1_Title"}, names(t, res))

	res = execute(t, e, "SELECT cmis:name, SCORE() FROM File WHERE CONTAINS('testfile1_Title')")
	require.Len(t, res.Rows, 1)
	score, ok := res.Rows[0].Get(ScoreKey)
	require.True(t, ok)
	v, ok := score.First()
	require.True(t, ok)
	assert.InDelta(t, 1.5, v.Float(), 1e-9)

	res = execute(t, e, "SELECT cmis:name, SCORE() AS priority FROM File WHERE CONTAINS('testfile1_Title')")
	require.Len(t, res.Rows, 1)
	_, ok = res.Rows[0].Get("priority")
	assert.True(t, ok)

	res = execute(t, e, "SELECT cmis:name, SCORE() importance FROM cmis:document WHERE CONTAINS('gee') ORDER BY importance DESC")
	assert.Equal(t, []string{"testfile3_Title", "testfile1_Title"}, names(t, res))

	res = execute(t, e, "SELECT cmis:name FROM cmis:document WHERE CONTAINS('gee') ORDER BY SCORE()")
	assert.Equal(t, []string{"testfile1_Title", "testfile3_Title"}, names(t, res))

	// an unaliased score column sorts under its output key
	res = execute(t, e, "SELECT cmis:name, SCORE() FROM cmis:document WHERE CONTAINS('gee') ORDER BY SEARCH_SCORE DESC")
	assert.Equal(t, []string{"testfile3_Title", "testfile1_Title"}, names(t, res))

	// no CONTAINS: the score column has no value
	res = execute(t, e, "SELECT cmis:name, SCORE() FROM File WHERE cmis:name = 'testfile2_Title'")
	require.Len(t, res.Rows, 1)
	score, ok = res.Rows[0].Get(ScoreKey)
	require.True(t, ok)
	assert.True(t, score.IsAbsent())

	_, err := e.Execute(context.Background(), "SELECT * FROM File WHERE CONTAINS('a') OR CONTAINS('b')", Page{})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = f.engine().Execute(context.Background(), "SELECT * FROM File WHERE CONTAINS('a')", Page{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestQueryJoin(t *testing.T) {
	f := newFixture(t)
	e := f.engine()

	res := execute(t, e, "SELECT A.cmis:objectId, A.dc:title, B.cmis:objectId, B.dc:title"+
		" FROM cmis:folder A"+
		" JOIN cmis:folder B ON A.cmis:objectId = B.cmis:parentId"+
		" WHERE A.cmis:name = 'testfolder2_Title'"+
		" ORDER BY B.dc:title")
	require.Equal(t, 2, res.TotalCount)

	first := res.Rows[0]
	assert.Equal(t, "f2", text(t, first, "A.cmis:objectId"))
	assert.Equal(t, "testfolder2_Title", text(t, first, "A.dc:title"))
	assert.Equal(t, "f3", text(t, first, "B.cmis:objectId"))
	assert.Equal(t, "testfolder3_Title", text(t, first, "B.dc:title"))
	assert.Equal(t, []string{"f2", "f3"}, first.ObjectIDs)

	second := res.Rows[1]
	assert.Equal(t, "f2", text(t, second, "A.cmis:objectId"))
	assert.Equal(t, "f4", text(t, second, "B.cmis:objectId"))
	assert.Equal(t, "testfolder4_Title", text(t, second, "B.dc:title"))

	// reversed condition sides give the same rows
	rev := execute(t, e, "SELECT A.cmis:objectId, B.cmis:objectId FROM cmis:folder A"+
		" INNER JOIN cmis:folder B ON B.cmis:parentId = A.cmis:objectId"+
		" WHERE A.cmis:name = 'testfolder2_Title' ORDER BY B.cmis:objectId")
	require.Len(t, rev.Rows, 2)
	assert.Equal(t, "f3", text(t, rev.Rows[0], "B.cmis:objectId"))
}

func TestQueryJoinSemantics(t *testing.T) {
	f := newFixture(t)
	e := f.engine()

	// folders without subfolders have no join partner
	res := execute(t, e, "SELECT A.cmis:objectId FROM cmis:folder A JOIN cmis:folder B ON A.cmis:objectId = B.cmis:parentId WHERE A.cmis:name = 'testfolder1_Title'")
	assert.Zero(t, res.TotalCount)

	// multi-valued properties join when they share an element
	res = execute(t, e, "SELECT A.cmis:name, B.cmis:name FROM File A JOIN Note B ON A.dc:subjects = B.dc:subjects")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "testfile1_Title", text(t, res.Rows[0], "A.cmis:name"))
	assert.Equal(t, "testfile3_Title", text(t, res.Rows[0], "B.cmis:name"))

	// wildcard expands per alias
	res = execute(t, e, "SELECT * FROM File A JOIN Note B ON A.dc:subjects = B.dc:subjects")
	require.Len(t, res.Rows, 1)
	fileType, err := f.reg.ResolveType("File")
	require.NoError(t, err)
	noteType, err := f.reg.ResolveType("Note")
	require.NoError(t, err)
	cols := res.Rows[0].Columns
	require.Len(t, cols, len(fileType.Properties())+len(noteType.Properties()))
	assert.Equal(t, "A.cmis:objectId", cols[0].Key)
	assert.Equal(t, "B.note", cols[len(cols)-1].Key)

	// an unqualified property declared by one side only resolves to it
	res = execute(t, e, "SELECT note FROM File A JOIN Note B ON A.dc:subjects = B.dc:subjects")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "this is a note", text(t, res.Rows[0], "note"))

	_, err = e.Execute(context.Background(), "SELECT cmis:name FROM File A JOIN Note B ON A.dc:subjects = B.dc:subjects", Page{})
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

func TestQueryTypedProperties(t *testing.T) {
	f := newFixture(t)
	f.addMyDoc(t)
	e := f.engine()

	res := execute(t, e, "SELECT * FROM MyDocType")
	assert.Equal(t, 1, res.TotalCount)

	for _, where := range []string{
		"my:string = 'some string'",
		"my:boolean = true",
		"my:boolean <> FALSE",
		"my:integer = 123",
		"my:integer = 123.0",
		"my:long > 123456788",
		"my:double = 123.456",
		"my:double < 124",
		"my:date = TIMESTAMP '2010-09-30T18:04:55Z'",
		"my:date = TIMESTAMP '2010-09-30T20:04:55.000+02:00'",
		"my:string IS NOT NULL",
	} {
		t.Run(where, func(t *testing.T) {
			res := execute(t, e, "SELECT cmis:objectId FROM MyDocType WHERE "+where)
			assert.Equal(t, 1, res.TotalCount)
		})
	}
}

func TestQueryInvalidLiteralIsLazy(t *testing.T) {
	f := newFixture(t)
	stmt := "SELECT cmis:objectId FROM MyDocType WHERE my:date <> TIMESTAMP 'foobar'"

	// nothing to evaluate yet
	res := execute(t, f.engine(), stmt)
	assert.Zero(t, res.TotalCount)

	// a short-circuited branch is never evaluated
	res = execute(t, f.engine(), "SELECT * FROM File WHERE cmis:name = 'nope' AND cmis:creationDate = TIMESTAMP 'foobar'")
	assert.Zero(t, res.TotalCount)

	f.addMyDoc(t)
	_, err := f.engine().Execute(context.Background(), stmt, Page{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLiteral)

	// an evaluated node fails even when the candidate has no value
	_, err = f.engine().Execute(context.Background(), "SELECT * FROM File WHERE dc:created = TIMESTAMP 'foobar'", Page{})
	assert.ErrorIs(t, err, ErrInvalidLiteral)

	// and regardless of where the bad element sits in a list
	_, err = f.engine().Execute(context.Background(),
		"SELECT * FROM File WHERE cmis:creationDate NOT IN (TIMESTAMP '2000-01-01T00:00:00Z', TIMESTAMP 'foobar')", Page{})
	assert.ErrorIs(t, err, ErrInvalidLiteral)
}

func TestQueryErrors(t *testing.T) {
	f := newFixture(t)
	e := f.engine()

	tests := []struct {
		name string
		stmt string
		want error
	}{
		{"unknown type", "SELECT * FROM NoSuchType", ErrUnknownType},
		{"type names are case-sensitive", "SELECT * FROM file", ErrUnknownType},
		{"unknown joined type", "SELECT * FROM File A JOIN Nope B ON A.cmis:objectId = B.cmis:objectId", ErrUnknownType},
		{"unknown property in select", "SELECT nosuch FROM File", ErrUnknownProperty},
		{"property names are case-sensitive", "SELECT cmis:objectId FROM File WHERE DC:TITLE = 'x'", ErrUnknownProperty},
		{"property of a subtype", "SELECT note FROM File", ErrUnknownProperty},
		{"unknown alias", "SELECT X.cmis:name FROM File A", ErrUnknownProperty},
		{"unknown order key", "SELECT * FROM File ORDER BY nosuch", ErrUnknownProperty},
		{"multi-valued without ANY", "SELECT * FROM File WHERE dc:contributors = 'bob'", ErrTypeMismatch},
		{"multi-valued IN without ANY", "SELECT * FROM File WHERE dc:contributors IN ('bob')", ErrTypeMismatch},
		{"ANY on single-valued", "SELECT * FROM File WHERE 'x' = ANY dc:title", ErrTypeMismatch},
		{"string against datetime", "SELECT * FROM File WHERE cmis:creationDate = '2010-01-01T00:00:00Z'", ErrTypeMismatch},
		{"number against string", "SELECT * FROM File WHERE dc:title = 3", ErrTypeMismatch},
		{"timestamp against string", "SELECT * FROM File WHERE dc:title = TIMESTAMP '2010-01-01T00:00:00Z'", ErrTypeMismatch},
		{"ordering booleans", "SELECT * FROM MyDocType WHERE my:boolean < true", ErrTypeMismatch},
		{"like on integer", "SELECT * FROM MyDocType WHERE my:integer LIKE '1%'", ErrTypeMismatch},
		{"order by multi-valued", "SELECT * FROM File ORDER BY dc:contributors", ErrTypeMismatch},
		{"join incomparable kinds", "SELECT * FROM File A JOIN Note B ON A.cmis:creationDate = B.cmis:name", ErrTypeMismatch},
		{"quantified less than", "SELECT * FROM File WHERE 'x' < ANY dc:contributors", ErrUnsupported},
		{"join within one table", "SELECT * FROM File A JOIN Note B ON A.cmis:name = A.dc:title", ErrUnsupported},
		{"syntax", "SELECT * FROM File WHERE", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), tt.stmt, Page{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want, "got %v", err)
		})
	}
}

func TestQueryUnknownNamesMatchModelErrors(t *testing.T) {
	f := newFixture(t)
	e := f.engine()

	_, err := e.Execute(context.Background(), "SELECT * FROM Nope", Page{})
	assert.ErrorIs(t, err, model.ErrUnknownType)
	var qe *Error
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, 14, qe.Pos)

	_, err = e.Execute(context.Background(), "SELECT nosuch FROM File", Page{})
	assert.ErrorIs(t, err, model.ErrUnknownProperty)
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, KindUnknownProperty, qe.Kind)
	assert.Equal(t, 7, qe.Pos)
}

func TestQueryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	e := f.engine(WithIndexer(fakeIndex{"gee": {"file1": 1, "file3": 1}}))
	stmt := "SELECT cmis:name, SCORE() FROM cmis:document WHERE CONTAINS('gee') OR IN_FOLDER('f1') ORDER BY SCORE() DESC"

	first := execute(t, e, stmt)
	second := execute(t, e, stmt)
	assert.Equal(t, first, second)
}

func TestQueryCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine().Execute(ctx, "SELECT * FROM File", Page{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrepare(t *testing.T) {
	f := newFixture(t)
	stmt, err := f.engine().Prepare("SELECT * FROM File WHERE dc:title = 'x' OR 'a' = ANY dc:subjects")
	require.NoError(t, err)
	assert.Equal(t, "(dc:title = 'x' OR 'a' = ANY dc:subjects)", stmt.Where.String())

	_, err = f.engine().Prepare("SELECT * FROM Nope")
	assert.ErrorIs(t, err, ErrUnknownType)
}
