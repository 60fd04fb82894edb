// Command svmtrain trains a two-class SVM on LIBSVM-format data with the
// online or batch solver and reports the solution and held-out accuracy.
//
// Usage:
//
//	svmtrain train data.libsvm [test.libsvm] [flags]
//	svmtrain config > svmtrain.yaml
//
// Example:
//
//	svmtrain train --mode batch --kernel rbf --gamma 0.5 --cost 10 a9a a9a.t
//	svmtrain train --config svmtrain.yaml --metrics-addr :9090 a9a
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "svmtrain:", err)
		os.Exit(1)
	}
}
