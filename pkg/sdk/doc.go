// Package lexspace provides an embedded Go client for the lexspace
// legal research workspace: norm search against a VisuaLex-compatible
// backend, result tabs, quick norms and dossiers, persisted in Redis
// or SQLite.
//
//	client, _ := lexspace.New(ctx,
//	    lexspace.WithBackend("http://localhost:5000"),
//	    lexspace.WithSQLite("/var/lib/lexspace/workspace.db"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Search().Run(ctx, norma.SearchParams{
//	    ActType: "legge", ActNumber: "241", Date: "1990-08-07", Article: "1-3",
//	})
//	tabs, _ := client.Workspace().ListTabs(ctx)
package lexspace
