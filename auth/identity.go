package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// WhoAmI returns the email address of the account that granted the token.
func WhoAmI(ctx context.Context, tokens oauth2.TokenSource, opts ...option.ClientOption) (string, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(tokens)}, opts...)

	service, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("unable to create OAuth2 client (%w)", err)
	}

	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve user info (%w)", err)
	}

	return info.Email, nil
}
