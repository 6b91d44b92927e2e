package sqlq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

var pageTests = []struct {
	name   string
	page   *int64
	limit  *int64
	sql    string
	params []interface{}
}{
	{
		name: "no limit means no clause",
		page: int64Ptr(3),
	},
	{
		name:   "first page",
		page:   int64Ptr(1),
		limit:  int64Ptr(25),
		sql:    "limit ? offset ?",
		params: []interface{}{int64(25), int64(0)},
	},
	{
		name:   "later page",
		page:   int64Ptr(4),
		limit:  int64Ptr(25),
		sql:    "limit ? offset ?",
		params: []interface{}{int64(25), int64(75)},
	},
	{
		name:   "absent page means first",
		limit:  int64Ptr(10),
		sql:    "limit ? offset ?",
		params: []interface{}{int64(10), int64(0)},
	},
}

func TestPage(t *testing.T) {
	for _, tc := range pageTests {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)

			sql, params := Page(tc.page, tc.limit)

			a.Equal(tc.sql, sql)
			a.Equal(tc.params, params)
		})
	}
}

func TestQueryPairedStatements(t *testing.T) {
	a := assert.New(t)

	pageSQL, pageParams := Page(int64Ptr(2), int64Ptr(10))

	q := Select("videos v", "v.id", "v.title", "vs.state").
		Join("left join video_states vs on vs.video_id = v.id").
		Where(Equals("vs.state", "inbox")).
		Where(Search("jazz", "v.title", "v.description")).
		OrderBy("order by v.created_at desc").
		Paginate(pageSQL, pageParams)

	sql, params := q.SQL()
	a.Equal(
		"select v.id, v.title, vs.state from videos v left join video_states vs on vs.video_id = v.id where vs.state = ? and (lower(v.title) like ? or lower(v.description) like ?) order by v.created_at desc limit ? offset ?",
		sql,
	)
	a.Equal([]interface{}{"inbox", "%jazz%", "%jazz%", int64(10), int64(10)}, params)

	countSQL, countParams := q.CountSQL()
	a.Equal(
		"select count(*) from videos v left join video_states vs on vs.video_id = v.id where vs.state = ? and (lower(v.title) like ? or lower(v.description) like ?)",
		countSQL,
	)
	a.Equal([]interface{}{"inbox", "%jazz%", "%jazz%"}, countParams)
}

func TestQueryNoFiltersNoPagination(t *testing.T) {
	a := assert.New(t)

	q := Select("movies m", "m.id").OrderBy("order by m.created_at desc")

	sql, params := q.SQL()
	a.Equal("select m.id from movies m order by m.created_at desc", sql)
	a.Empty(params)

	countSQL, countParams := q.CountSQL()
	a.Equal("select count(*) from movies m", countSQL)
	a.Empty(countParams)
}
