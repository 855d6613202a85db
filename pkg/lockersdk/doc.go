/*
Package lockersdk is a client for the locker API.

A Client covers the anonymous endpoints (registration, login, password reset
and health). Logging in returns a Session that carries the bearer token and
exposes the item operations:

	client := lockersdk.NewClient("http://localhost:8000")

	if _, err := client.Register(ctx, lockersdk.RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "pw1",
	}); err != nil {
		return err
	}

	session, err := client.Login(ctx, "bob", "pw1")
	if err != nil {
		return err
	}

	item, err := session.CreateItem(ctx, lockersdk.ItemRequest{Title: "t"})

Tokens are not refreshed. Once a session expires the caller logs in again;
Session methods return ErrSessionExpired without contacting the server.

Server errors decode into *APIError. The same values are used by the server
to write its responses, so callers can compare codes directly:

	var apiErr *lockersdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == lockersdk.ErrorCodeItemNotFound {
		// ...
	}
*/
package lockersdk
