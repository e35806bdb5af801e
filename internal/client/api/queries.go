package api

const (
	queryFindAllBooks = `query FINDALLBOOKS {
  findAllBooks {
    id
    name
    description
  }
}`

	queryFindOneBook = `query FINDBOOK($id: Float!) {
  findOneBook(id: $id) {
    id
    name
    description
  }
}`

	mutationCreateBook = `mutation CREATEBOOK($name: String!, $description: String!) {
  createBook(data: { name: $name, description: $description }) {
    id
    name
    description
  }
}`

	mutationUpdateBook = `mutation UPDATE($id: Float!, $name: String!, $description: String!) {
  updateBook(id: $id, data: { name: $name, description: $description }) {
    id
    name
    description
  }
}`

	mutationDeleteBook = `mutation DELETE($id: Float!) {
  deleteBook(id: $id)
}`

	mutationDeleteAllBooks = `mutation DELETEALL {
  deleteAllBooks
}`
)
