//go:build !unix

package platform

func unameMachine() string {
	return ""
}
