//go:build !race

package userdb

func passwordHashCost() int {
	return 12
}
