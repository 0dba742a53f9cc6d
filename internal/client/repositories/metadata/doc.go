// Package metadata is the durable key/value storage behind the session
// store: the browser dashboard keeps its token and user snapshot in
// localStorage, the terminal client keeps them in a SQLite "metadata" table.
//
// # Contract
//
//   - List returns every stored key; a missing key is simply absent.
//   - SetMany and DeleteMany are atomic: either every key is written/removed
//     or none is. The session store relies on this to keep the credential
//     and the identity snapshot consistent.
//   - Writes are last-writer-wins.
//
// Typical usage
//
//	repo := metadata.NewSQLiteRepository(db)
//	_ = repo.SetMany(ctx, map[string][]byte{"devsage_access_token": tok, "devsage_user": user})
//	all, _ := repo.List(ctx)
//	tok := all["devsage_access_token"]
package metadata
