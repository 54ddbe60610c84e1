package mysql

const insertSearchSQL = `
INSERT INTO search_log (query, results)
VALUES (?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Most-executed queries, for cache warming. Ties break on recency.
const topQueriesSQL = `
SELECT query, COUNT(*) AS cnt
FROM search_log
GROUP BY query
ORDER BY cnt DESC, MAX(created_at) DESC
LIMIT ?
`

const recentSearchesSQL = `
SELECT query, results
FROM search_log
ORDER BY created_at DESC, id DESC
LIMIT ?
`
