// Command draftctl operates the offline/online draft-prediction pipeline:
// training and evaluating models, building per-patch assets, managing the
// artifact registry, refreshing the serving-path context, and running a
// one-off prediction from the command line.
package main

func main() {
	Execute()
}
