package imapclient

import (
	"github.com/emersion/go-sasl"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/emersion/go-imapengine"
	"github.com/emersion/go-imapengine/internal"
	"github.com/emersion/go-imapengine/internal/imapwire"
)

// AuthenticateArgs are the arguments of AUTHENTICATE. InitialResponse is
// only sent if the server supports SASL-IR.
type AuthenticateArgs struct {
	Mechanism       string
	InitialResponse []byte
}

func (args *AuthenticateArgs) Kind() Kind {
	return KindAuthenticate
}

func (args *AuthenticateArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().Atom(args.Mechanism)
	if args.InitialResponse != nil {
		enc.SP().Atom(internal.EncodeSASL(args.InitialResponse))
	}
}

// LoginArgs are the arguments of LOGIN.
type LoginArgs struct {
	Username string
	Password string
}

func (args *LoginArgs) Kind() Kind {
	return KindLogin
}

func (args *LoginArgs) encodeArgs(enc *imapwire.Encoder) {
	enc.SP().String(args.Username).SP().String(args.Password)
}

// LoginPlain sends a LOGIN command. A rejection is returned as an
// *AuthError.
func (c *Client) LoginPlain(username, password string) error {
	if c.caps.Has(imap.CapLoginDisabled) {
		return &NegotiationError{Host: c.host, Cap: imap.CapLoginDisabled, Msg: "LOGIN is disabled by the server"}
	}
	err := c.do(&LoginArgs{Username: username, Password: password}, nil)
	var imapErr *imap.Error
	if errors.As(err, &imapErr) {
		return &AuthError{Host: c.host, User: username, Err: err}
	}
	return err
}

// Authenticate runs an AUTHENTICATE exchange. A rejection is returned as an
// *AuthError.
//
// The initial response is sent along with the command if the server
// supports SASL-IR, otherwise in reply to the first empty challenge.
func (c *Client) Authenticate(username string, saslClient sasl.Client) error {
	mech, initialResp, err := saslClient.Start()
	if err != nil {
		return err
	}

	args := &AuthenticateArgs{Mechanism: mech}
	if initialResp != nil && c.caps.Has(imap.CapSASLIR) {
		args.InitialResponse = initialResp
		initialResp = nil
	}

	cmd, err := c.Send(args)
	if err != nil {
		return err
	}
	defer c.CompleteAndRemove(cmd)

	var saslErr error
	for !cmd.done {
		if cmd.err != nil {
			return cmd.err
		}
		resp, err := c.Step()
		if err != nil {
			return err
		}
		contReq, ok := resp.(*ContinuationRequest)
		if !ok || c.inflight() != cmd {
			continue
		}

		if contReq.Text == "" && initialResp != nil {
			err = c.writeLine(internal.EncodeSASL(initialResp))
			initialResp = nil
		} else {
			err = c.answerChallenge(saslClient, contReq.Text, &saslErr)
		}
		if err != nil {
			return err
		}
	}

	if err := cmd.Err(); err != nil {
		if saslErr != nil {
			err = saslErr
		}
		return &AuthError{Host: c.host, User: username, Mechanism: mech, Err: err}
	}
	level.Debug(c.logger).Log("msg", "authenticated", "mechanism", mech)
	return nil
}

// answerChallenge writes the reply to a server challenge. If the SASL
// client fails, the exchange is cancelled with "*" and the error is kept in
// saslErr.
func (c *Client) answerChallenge(saslClient sasl.Client, challengeStr string, saslErr *error) error {
	challenge, err := internal.DecodeSASL(challengeStr)
	if err == nil {
		var resp []byte
		resp, err = saslClient.Next(challenge)
		if err == nil {
			return c.writeLine(internal.EncodeSASL(resp))
		}
	}
	if *saslErr == nil {
		*saslErr = err
	}
	return c.writeLine("*")
}

// saslClient returns the SASL client of a mechanism.
func saslClient(options *LoginOptions, host string, port int) (sasl.Client, error) {
	switch options.Mechanism {
	case sasl.Plain:
		return sasl.NewPlainClient("", options.User, options.Password), nil
	case sasl.Login:
		return sasl.NewLoginClient(options.User, options.Password), nil
	case sasl.Anonymous:
		return sasl.NewAnonymousClient(options.User), nil
	case sasl.External:
		return sasl.NewExternalClient(options.User), nil
	case sasl.OAuthBearer:
		return sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
			Username: options.User,
			Token:    options.Token,
			Host:     host,
			Port:     port,
		}), nil
	case "XOAUTH2":
		return &xoauth2Client{username: options.User, token: options.Token}, nil
	default:
		return nil, errors.Errorf("imapclient: unsupported SASL mechanism %v", options.Mechanism)
	}
}

// xoauth2Client implements the XOAUTH2 mechanism, as described in
// https://developers.google.com/gmail/xoauth2_protocol.
type xoauth2Client struct {
	username string
	token    string
}

func (a *xoauth2Client) Start() (mech string, ir []byte, err error) {
	mech = "XOAUTH2"
	ir = []byte("user=" + a.username + "\x01auth=Bearer " + a.token + "\x01\x01")
	return
}

// Next answers the error challenge with an empty response: the server then
// completes the command with NO.
func (a *xoauth2Client) Next(challenge []byte) (response []byte, err error) {
	return []byte{}, nil
}
