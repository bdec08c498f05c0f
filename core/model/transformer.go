package model

import "gonum.org/v1/gonum/mat"

// Transformer はデータ変換のインターフェース
// Fitで学習したパラメータのみを使ってTransformを行う（データリーク防止）
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform は学習済みパラメータでデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer は変換を元に戻せる変換器のインターフェース
type InverseTransformer interface {
	Transformer

	// InverseTransform は変換済みデータを元のスケールに戻す
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}
