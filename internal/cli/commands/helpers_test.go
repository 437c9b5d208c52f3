package commands

import "github.com/coldread-dev/coldread/internal/cli/bridge"

func bridgeGet() bridge.Message { return bridge.Message{Type: bridge.GetToken} }

func bridgeSet(token string) bridge.Message {
	return bridge.Message{Type: bridge.SetToken, Token: token}
}

func bridgeClear() bridge.Message { return bridge.Message{Type: bridge.ClearToken} }
