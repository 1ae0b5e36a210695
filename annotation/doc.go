// Package annotation keeps the per-user movie marks, Favorite and Watched.
//
// A mark is a (user, movie, kind) membership. The store is a thin layer over a
// Backend, which is a document database in production:
//
//	backend := annotation.NewDynamoBackend(dynamoClient, "annotations", logger)
//	store := annotation.NewStore(backend, catalog, logger)
//
//	marked, err := store.Toggle(ctx, userID, 550, annotation.Favorite)
//	favorites, err := store.ListMarkedMovies(ctx, userID, annotation.Favorite)
//
// # Identity
//
// Every operation is scoped to a user ID supplied by the caller. An empty user
// ID means nobody is signed in: reads return false or an empty list and Toggle
// returns ErrNoIdentity. None of them touch the backend.
//
// # Concurrency
//
// Toggle reads the current state and then writes the opposite. Two devices
// toggling the same mark at the same time can both observe the same state;
// the last write wins. The DynamoDB backend makes the write conditional, so a
// device that loses the race still reports the state it asked for.
//
// # Hydration
//
// ListMarkedMovies fetches each marked movie from the catalog concurrently.
// Movies the catalog cannot return are logged and left out; the call only fails
// when the backend fails.
package annotation
