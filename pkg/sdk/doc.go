// Package lostfound provides an embedded Go client for the lost-and-found
// record service backed by Redis Stack.
//
//	client, _ := lostfound.New(ctx, lostfound.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	created, _ := client.CreateItem(ctx, &lostfound.Item{CreateUserPlace: "札幌駅"})
//	items, _ := client.ListItems(ctx, lostfound.Criteria{Municipality: "さっぽろ"})
//
// Natural-language criteria matching and image classification require an
// oracle (use WithOracle); without one those operations degrade to exact
// lookups only.
package lostfound
