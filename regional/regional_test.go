package regional

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nezuko-cli/nezuko/catalog"
	"github.com/nezuko-cli/nezuko/generation"
	"github.com/nezuko-cli/nezuko/source"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]*source.Candidate
	fail    map[string]bool
	block   map[string]bool
}

func (f *fakeSearcher) Search(ctx context.Context, q string) ([]*source.Candidate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.block[q] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.fail[q] {
		return nil, errors.New("unreachable")
	}
	return f.results[q], nil
}

func frieren() *catalog.Media {
	m := &catalog.Media{ID: 154587}
	m.Title.English = "Frieren: Beyond Journey's End"
	m.Title.Romaji = "Sousou no Frieren"
	return m
}

func regional(id, title string, langs ...string) *source.Candidate {
	return &source.Candidate{ID: id, Title: title, Provider: source.Regional, AvailableLanguages: langs}
}

func TestQueries(t *testing.T) {
	Convey("Queries should start with the bare title and add each language", t, func() {
		So(Queries("Naruto"), ShouldResemble, []string{
			"Naruto",
			"Naruto Hindi",
			"Naruto Telugu",
			"Naruto Tamil",
			"Naruto Malayalam",
			"Naruto Kannada",
		})
	})
}

func TestClean(t *testing.T) {
	Convey("Clean should strip tags and keywords", t, func() {
		So(Clean("Frieren: Beyond Journey's End (Hindi Dub) [1080p]"), ShouldEqual, "frierenbeyondjourneysend")
		So(Clean("Sousou no Frieren Season 2 Multi Audio"), ShouldEqual, "sousounofrieren")
		So(Clean("[Tamil] (Dub)"), ShouldBeEmpty)
	})
}

func TestMatches(t *testing.T) {
	Convey("Given a media record", t, func() {
		m := frieren()

		Convey("A regional dub of the English title should match", func() {
			So(Matches("Frieren: Beyond Journey's End Hindi Dub", m), ShouldBeTrue)
		})

		Convey("A romaji title should match", func() {
			So(Matches("Sousou no Frieren (Tamil)", m), ShouldBeTrue)
		})

		Convey("An unrelated title should not match", func() {
			So(Matches("Naruto Hindi Dub", m), ShouldBeFalse)
		})

		Convey("A title that cleans to nothing should not match", func() {
			So(Matches("[Hindi] Dub", m), ShouldBeFalse)
		})
	})

	Convey("Given a media record without titles", t, func() {
		So(Matches("Anything", &catalog.Media{}), ShouldBeFalse)
	})
}

func TestLabel(t *testing.T) {
	Convey("Label should name variants by their audio", t, func() {
		Convey("Multi audio by flag", func() {
			c := regional("a", "Frieren")
			c.IsMultiAudio = true
			v := Label(c)
			So(v.Name, ShouldEqual, MultiAudio)
			So(v.Type, ShouldEqual, source.Multi)
		})

		Convey("Multi audio by title", func() {
			So(Label(regional("a", "Frieren [Multi]")).Type, ShouldEqual, source.Multi)
		})

		Convey("A dub takes the language before the keyword", func() {
			v := Label(regional("a", "Frieren Hindi Dub"))
			So(v.Name, ShouldEqual, "Hindi")
			So(v.Type, ShouldEqual, source.Dub)
		})

		Convey("A dub without a language word takes the trailing tag", func() {
			v := Label(regional("a", "Frieren-dub (Tamil)"))
			So(v.Name, ShouldEqual, "Tamil")
			So(v.Type, ShouldEqual, source.Dub)
		})

		Convey("Anything else is subbed", func() {
			v := Label(regional("a", "Frieren"))
			So(v.Name, ShouldEqual, "Subbed")
			So(v.Type, ShouldEqual, source.Sub)
		})

		Convey("Overlong names fall back to the language", func() {
			c := regional("a", "Frieren-dub (Telugu and Kannada Mixed Edition)")
			c.Language = "Telugu"
			So(Label(c).Name, ShouldEqual, "Telugu")

			c.Language = ""
			So(Label(c).Name, ShouldEqual, "Unknown")
		})
	})
}

func TestSort(t *testing.T) {
	Convey("Sort should put multi audio first, then order by name", t, func() {
		variants := []source.Variant{
			{Name: "tamil", ID: "1", Type: source.Dub},
			{Name: "Hindi", ID: "2", Type: source.Dub},
			{Name: MultiAudio, ID: "3", Type: source.Multi},
			{Name: "Subbed", ID: "4", Type: source.Sub},
		}
		Sort(variants)

		So(variants[0].ID, ShouldEqual, "3")
		So(variants[1].ID, ShouldEqual, "2")
		So(variants[2].ID, ShouldEqual, "4")
		So(variants[3].ID, ShouldEqual, "1")
	})
}

func TestResolve(t *testing.T) {
	Convey("Given regional sources returning overlapping results", t, func() {
		m := frieren()
		hindi := regional("x1", "Frieren: Beyond Journey's End Hindi Dub", "Hindi")
		multi := regional("x2", "Frieren: Beyond Journey's End Multi Audio", "Hindi", "Tamil")
		f := &fakeSearcher{results: map[string][]*source.Candidate{
			"Frieren: Beyond Journey's End":       {hindi, multi},
			"Frieren: Beyond Journey's End Hindi": {hindi},
			"Frieren: Beyond Journey's End Tamil": {multi, regional("x3", "Naruto Tamil Dub", "Tamil")},
		}}
		var counter generation.Counter
		r := NewResolver(f, time.Second)

		res, ok := r.Resolve(context.Background(), m, counter.Next())

		Convey("Every query should be issued", func() {
			So(ok, ShouldBeTrue)
			So(f.queries, ShouldHaveLength, 6)
		})

		Convey("Each id should appear once", func() {
			So(res.Available, ShouldBeTrue)
			So(res.Variants, ShouldHaveLength, 2)
		})

		Convey("The multi audio variant should come first and be the default", func() {
			So(res.Variants[0].ID, ShouldEqual, "x2")
			So(res.Variants[1].Name, ShouldEqual, "Hindi")

			def, found := res.Default()
			So(found, ShouldBeTrue)
			So(def.ID, ShouldEqual, "x2")
		})

		Convey("Languages should be the union", func() {
			So(res.Languages, ShouldResemble, []string{"Hindi", "Tamil"})
		})
	})

	Convey("Given regional sources that fail or hang", t, func() {
		m := frieren()
		f := &fakeSearcher{
			results: map[string][]*source.Candidate{
				"Frieren: Beyond Journey's End Hindi": {regional("x1", "Frieren Hindi Dub", "Hindi")},
			},
			fail:  map[string]bool{"Frieren: Beyond Journey's End": true},
			block: map[string]bool{"Frieren: Beyond Journey's End Tamil": true},
		}
		var counter generation.Counter
		r := NewResolver(f, 20*time.Millisecond)

		res, ok := r.Resolve(context.Background(), m, counter.Next())

		Convey("The surviving query should still produce variants", func() {
			So(ok, ShouldBeTrue)
			So(res.Available, ShouldBeTrue)
			So(res.Variants, ShouldHaveLength, 1)
		})
	})

	Convey("Given no regional results", t, func() {
		var counter generation.Counter
		r := NewResolver(&fakeSearcher{}, time.Second)
		res, ok := r.Resolve(context.Background(), frieren(), counter.Next())

		Convey("Nothing should be available", func() {
			So(ok, ShouldBeTrue)
			So(res.Available, ShouldBeFalse)
			_, found := res.Default()
			So(found, ShouldBeFalse)
		})
	})

	Convey("Given results without language metadata", t, func() {
		f := &fakeSearcher{results: map[string][]*source.Candidate{
			"Frieren: Beyond Journey's End": {regional("x1", "Frieren Hindi Dub")},
		}}
		var counter generation.Counter
		res, _ := NewResolver(f, time.Second).Resolve(context.Background(), frieren(), counter.Next())

		Convey("They should be dropped", func() {
			So(res.Available, ShouldBeFalse)
		})
	})

	Convey("Given a generation that moves on", t, func() {
		var counter generation.Counter
		tok := counter.Next()
		counter.Next()
		_, ok := NewResolver(&fakeSearcher{}, time.Second).Resolve(context.Background(), frieren(), tok)

		Convey("The result should be discarded", func() {
			So(ok, ShouldBeFalse)
		})
	})
}
