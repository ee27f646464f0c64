package provider

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// cognitoAPI is the subset of the Cognito client used here.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
}

// Cognito implements Provider over a Cognito user pool app client.
type Cognito struct {
	client   cognitoAPI
	clientID string
}

// NewCognito returns a Provider backed by the given Cognito client and app
// client id.
func NewCognito(client cognitoAPI, clientID string) *Cognito {
	return &Cognito{client: client, clientID: clientID}
}

// Login runs the USER_PASSWORD_AUTH flow and returns the issued tokens.
func (c *Cognito) Login(ctx context.Context, username, password string) (*Tokens, error) {
	out, err := c.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, err
	}
	if out.AuthenticationResult == nil {
		// Challenge flows (MFA, forced password change) are not supported by
		// this endpoint.
		return nil, errors.New("authentication did not complete")
	}
	res := out.AuthenticationResult
	return &Tokens{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

// SignUp registers a new user with the email attribute set.
func (c *Cognito) SignUp(ctx context.Context, username, password, email string) (*SignupResult, error) {
	out, err := c.client.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(username),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return nil, err
	}
	return &SignupResult{
		UserConfirmed: out.UserConfirmed,
		UserSub:       aws.ToString(out.UserSub),
	}, nil
}
