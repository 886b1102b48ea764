// Package callback completes an OAuth sign-in on the process side.
//
// The auth API redirects the browser to <origin>/auth/callback with either a
// token or an error query parameter. Handler consumes the stored flow state,
// persists the token and reports where the user was headed. Server is the
// loopback listener that receives the redirect and hands the Result to
// whoever is waiting in Await.
//
//	srv := callback.NewServer(server.Config{}, log)
//	if err := srv.Listen(); err != nil { ... }
//	origin, _ := srv.Origin()
//	engine := pkce.NewEngine(states, pkce.BrowserNavigator{}, origin)
//	_ = srv.Start(ctx, callback.NewHandler(engine, storage, log))
//	defer srv.Stop(ctx)
//	// controller.LoginWithOAuth(...)
//	res, err := srv.Await(ctx)
package callback
