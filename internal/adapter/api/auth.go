package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// SignIn starts a cookie session
func (c *Client) SignIn(ctx context.Context, login, password string) error {
	payload, err := json.Marshal(map[string]string{"login": login, "password": password})
	if err != nil {
		return err
	}
	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/app/auth/sign-in",
		body:        payload,
		contentType: contentJSON,
		noRefresh:   true,
	})
	if err != nil {
		return err
	}
	return decodeAck(body)
}

func (c *Client) SignUp(ctx context.Context, req domain.SignUpRequest) error {
	payload, err := json.Marshal(map[string]string{
		"email":          req.Email,
		"username":       req.Username,
		"password":       req.Password,
		"repeatPassword": req.RepeatPassword,
	})
	if err != nil {
		return err
	}
	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/app/auth/sign-up",
		body:        payload,
		contentType: contentJSON,
		noRefresh:   true,
	})
	if err != nil {
		return err
	}
	return decodeAck(body)
}

// SignOut ends the session on the server and always forgets local cookies
func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/app/auth/logout",
		body:        []byte{},
		contentType: contentJSON,
		noRefresh:   true,
	})
	c.jar.reset()
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: "/api/app/users/current-user"})
	if err != nil {
		return nil, err
	}
	dto, err := decodeValue[userDTO](body)
	if err != nil {
		return nil, err
	}
	return mapUser(dto)
}

var _ domain.AuthRepository = (*Client)(nil)
