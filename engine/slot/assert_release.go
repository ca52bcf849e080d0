//go:build !oxydebug

package slot

const debugAssertions = false
