package catalog

const mediaFields = `
  id
  idMal
  title { romaji english native }
  coverImage { extraLarge large medium }
  bannerImage
  description
  averageScore
  meanScore
  popularity
  status
  format
  genres
  episodes
  duration
  season
  seasonYear
  startDate { year month day }
  endDate { year month day }
  studios { nodes { name isAnimationStudio } }
  source
  streamingEpisodes { title thumbnail url site }
`

const byIDQuery = `
query($id: Int) {
  Media(id: $id, type: ANIME) {` + mediaFields + `}
}`

const trendingQuery = `
query($page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(sort: TRENDING_DESC, type: ANIME, isAdult: false) {` + mediaFields + `}
  }
}`
