// Package mock provides canned metadata providers for running the bot
// without API keys.
package mock

import (
	"strings"

	"github.com/filmscout/filmscout/internal/movie"
)

type entry struct {
	tmdbID   string
	imdbID   string
	title    string
	date     string
	overview string
	rating   float64
	votes    int
	poster   string
	director string
	cast     []string
	genres   []string
	runtime  int
}

var catalog = []entry{
	{
		tmdbID: "603", imdbID: "tt0133093", title: "The Matrix", date: "1999-03-30",
		overview: "Set in the 22nd century, The Matrix tells the story of a computer hacker who joins a group of underground insurgents fighting the vast and powerful computers who now rule the earth.",
		rating:   8.2, votes: 25000, poster: "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg",
		director: "Lana Wachowski", cast: []string{"Keanu Reeves", "Laurence Fishburne", "Carrie-Anne Moss"},
		genres: []string{"Action", "Science Fiction"}, runtime: 136,
	},
	{
		tmdbID: "27205", imdbID: "tt1375666", title: "Inception", date: "2010-07-15",
		overview: "Cobb, a skilled thief who commits corporate espionage by infiltrating the subconscious of his targets is offered a chance to regain his old life.",
		rating:   8.4, votes: 36000, poster: "/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg",
		director: "Christopher Nolan", cast: []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt", "Elliot Page", "Tom Hardy"},
		genres: []string{"Action", "Science Fiction", "Adventure"}, runtime: 148,
	},
	{
		tmdbID: "157336", imdbID: "tt0816692", title: "Interstellar", date: "2014-11-05",
		overview: "The adventures of a group of explorers who make use of a newly discovered wormhole to surpass the limitations on human space travel.",
		rating:   8.4, votes: 34000, poster: "/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg",
		director: "Christopher Nolan", cast: []string{"Matthew McConaughey", "Anne Hathaway", "Jessica Chastain"},
		genres: []string{"Adventure", "Drama", "Science Fiction"}, runtime: 169,
	},
	{
		tmdbID: "680", imdbID: "tt0110912", title: "Pulp Fiction", date: "1994-09-10",
		overview: "A burger-loving hit man, his philosophical partner, a drug-addled gangster's moll and a washed-up boxer converge in this sprawling crime caper.",
		rating:   8.5, votes: 27000, poster: "/d5iIlFn5s0ImszYzBPb8JPIfbXD.jpg",
		director: "Quentin Tarantino", cast: []string{"John Travolta", "Samuel L. Jackson", "Uma Thurman"},
		genres: []string{"Thriller", "Crime"}, runtime: 154,
	},
	{
		tmdbID: "155", imdbID: "tt0468569", title: "The Dark Knight", date: "2008-07-16",
		overview: "Batman raises the stakes in his war on crime with the help of Lt. Jim Gordon and District Attorney Harvey Dent.",
		rating:   8.5, votes: 31000, poster: "/qJ2tW6WMUDux911r6m7haRef0WH.jpg",
		director: "Christopher Nolan", cast: []string{"Christian Bale", "Heath Ledger", "Aaron Eckhart"},
		genres: []string{"Drama", "Action", "Crime", "Thriller"}, runtime: 152,
	},
	{
		tmdbID: "693134", imdbID: "tt15239678", title: "Dune: Part Two", date: "2024-02-27",
		overview: "Follow the mythic journey of Paul Atreides as he unites with Chani and the Fremen while on a path of revenge.",
		rating:   8.2, votes: 6000, poster: "/1pdfLvkbY9ohJlCjQH2CZjjYVvJ.jpg",
		director: "Denis Villeneuve", cast: []string{"Timothée Chalamet", "Zendaya", "Rebecca Ferguson"},
		genres: []string{"Science Fiction", "Adventure"}, runtime: 167,
	},
}

// search returns entries whose title contains query, or the whole catalog
// when nothing matches so the bot always has something to show.
func search(query string) []entry {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []entry
	for _, e := range catalog {
		if strings.Contains(strings.ToLower(e.title), query) {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return catalog
	}
	return out
}

func (e entry) record(origin movie.Origin) movie.Record {
	rating := e.rating
	r := movie.Record{
		Title:         e.title,
		OriginalTitle: e.title,
		ReleaseDate:   e.date,
		Overview:      e.overview,
		Rating:        &rating,
		VoteCount:     e.votes,
		Director:      e.director,
		Cast:          append([]string(nil), e.cast...),
		Genres:        append([]string(nil), e.genres...),
		Runtime:       e.runtime,
		Type:          "movie",
		Origin:        origin,
	}
	switch origin {
	case movie.OriginTMDB:
		r.TMDBID = e.tmdbID
		r.PosterURL = "https://image.tmdb.org/t/p/w500" + e.poster
	case movie.OriginOMDb:
		r.IMDbID = e.imdbID
		r.ReleaseDate = e.date[:4]
	}
	return r
}
