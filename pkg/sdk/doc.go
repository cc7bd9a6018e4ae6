// Package vecscope provides an in-process Go client for browsing vector
// databases through the vecscope adapter layer.
//
// Instances are registered once in a shared registry (a local directory or
// Redis) and then addressed by name, whatever engine serves them:
//
//	client, _ := vecscope.New(ctx, vecscope.WithFileRegistry("./data"))
//	defer client.Close()
//
//	_, _ = client.Instances().Add(ctx, "local", "http://localhost:6333", vecscope.EngineQdrant)
//	cols, _ := client.Collections("local").List(ctx)
//	page, _ := client.Collections("local").Records(ctx, cols[0].Name, vecscope.Page(0, 20))
//	hits, _ := client.Collections("local").Search(ctx, cols[0].Name, vector, 10)
//
// Text queries need an Embedder:
//
//	client, _ := vecscope.New(ctx,
//	    vecscope.WithRedis("localhost:6379", ""),
//	    vecscope.WithEmbedder(myEmbedder),
//	)
//	hits, _ := client.Collections("local").SearchText(ctx, "docs", "refund policy", 5)
package vecscope
