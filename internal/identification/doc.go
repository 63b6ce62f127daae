// Package identification matches release filenames to TMDB movies.
//
// The Resolver searches with the parsed year first, then without it, scores
// candidates with textutil.TitleSimilarity and reconciles release years so a
// remake or namesake from another decade is never accepted. When nothing
// survives, it returns a fallback match built from the filename alone.
//
// Search wraps the TMDB client with a TTL cache, a token-bucket rate limit and
// in-flight de-duplication, so the live watcher and the rescan loop can ask
// for the same title concurrently without doubling requests.
package identification
